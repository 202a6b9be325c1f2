package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storeops/access-engine/auth"
	"github.com/storeops/access-engine/config"
	"github.com/storeops/access-engine/models"
	"github.com/storeops/access-engine/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.Employee, error) {
	args := m.Called(ctx, email, password)
	if e := args.Get(0); e != nil {
		return e.(*models.Employee), args.Error(1)
	}
	return nil, args.Error(1)
}

func testSessionManager() *auth.SessionManager {
	return auth.NewSessionManager(config.AuthConfig{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		CookieName:    "ops_session",
	}, false)
}

func loginBody(t *testing.T, email, password, callback string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(LoginRequest{Email: email, Password: password, CallbackURL: callback})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandleLogin(t *testing.T) {
	stored := models.NewEmployee("clerk@store.test", "Clerk", "hash", models.RoleEmployee)

	t.Run("sets the session cookie on success", func(t *testing.T) {
		authn := new(MockAuthenticator)
		h := NewAuthHandler(authn, testSessionManager(), "/dashboard", zap.NewNop())

		authn.On("Authenticate", mock.Anything, "clerk@store.test", "hunter2-longer").Return(stored, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", loginBody(t, "clerk@store.test", "hunter2-longer", ""))
		w := httptest.NewRecorder()
		h.HandleLogin(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "ops_session", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.NotEmpty(t, cookies[0].Value)

		var resp struct {
			Data LoginResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "employee", resp.Data.Role)
		assert.Equal(t, "/dashboard", resp.Data.RedirectTo)
	})

	t.Run("honors a relative callback url", func(t *testing.T) {
		authn := new(MockAuthenticator)
		h := NewAuthHandler(authn, testSessionManager(), "/dashboard", zap.NewNop())
		authn.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(stored, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", loginBody(t, "clerk@store.test", "hunter2-longer", "/orders?status=open"))
		w := httptest.NewRecorder()
		h.HandleLogin(w, req)

		var resp struct {
			Data LoginResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "/orders?status=open", resp.Data.RedirectTo)
	})

	t.Run("refuses an off-site callback url", func(t *testing.T) {
		authn := new(MockAuthenticator)
		h := NewAuthHandler(authn, testSessionManager(), "/dashboard", zap.NewNop())
		authn.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).Return(stored, nil)

		for _, callback := range []string{"https://evil.example/", "//evil.example"} {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", loginBody(t, "clerk@store.test", "hunter2-longer", callback))
			w := httptest.NewRecorder()
			h.HandleLogin(w, req)

			var resp struct {
				Data LoginResponse `json:"data"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "/dashboard", resp.Data.RedirectTo, callback)
		}
	})

	t.Run("bad credentials are unauthorized", func(t *testing.T) {
		authn := new(MockAuthenticator)
		h := NewAuthHandler(authn, testSessionManager(), "/dashboard", zap.NewNop())
		authn.On("Authenticate", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, services.ErrInvalidCredentials)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", loginBody(t, "clerk@store.test", "wrong-password", ""))
		w := httptest.NewRecorder()
		h.HandleLogin(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("missing fields never reach the service", func(t *testing.T) {
		authn := new(MockAuthenticator)
		h := NewAuthHandler(authn, testSessionManager(), "/dashboard", zap.NewNop())

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"not-an-email"}`))
		w := httptest.NewRecorder()
		h.HandleLogin(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		authn.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleLogout(t *testing.T) {
	h := NewAuthHandler(new(MockAuthenticator), testSessionManager(), "/dashboard", zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w := httptest.NewRecorder()
	h.HandleLogout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.Empty(t, cookies[0].Value)
}

func TestHandleSession(t *testing.T) {
	sessions := testSessionManager()
	h := NewAuthHandler(new(MockAuthenticator), sessions, "/dashboard", zap.NewNop())

	t.Run("echoes the session behind the cookie", func(t *testing.T) {
		stored := models.NewEmployee("manager@store.test", "Manager", "hash", models.RoleManager)
		token, err := sessions.Issue(stored)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		req.AddCookie(sessions.Cookie(token))
		w := httptest.NewRecorder()
		h.HandleSession(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data SessionResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "manager", resp.Data.Role)
		assert.Equal(t, stored.ID.String(), resp.Data.EmployeeID)
		assert.Nil(t, resp.Data.TemplateID)
	})

	t.Run("no cookie is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		w := httptest.NewRecorder()
		h.HandleSession(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
