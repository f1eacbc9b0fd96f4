package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/audit"
	"github.com/smartduck/ducktodo/internal/cascade"
	"github.com/smartduck/ducktodo/internal/constants"
	"github.com/smartduck/ducktodo/internal/logging"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/services"
	"github.com/smartduck/ducktodo/internal/storage"
	"github.com/smartduck/ducktodo/internal/testutil"
)

type handlerEnv struct {
	db     *gorm.DB
	svc    Services
	router *gin.Engine
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	log := logging.Discard()
	store := repository.NewStore(db)
	engine := cascade.NewEngine(db, storage.NopRemover{}, log)
	members := services.NewMembershipService(store, log)

	svc := Services{
		Auth:    services.NewAuthService(store),
		Members: members,
		Teams:   services.NewTeamService(store, members, engine, log),
		Groups:  services.NewTaskGroupService(store, engine, log),
		Tasks:   services.NewTaskService(store, engine, audit.NewRecorder(store, log), storage.NopRemover{}, log),
		Authz:   services.NewAuthorizer(store),
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, svc)

	return &handlerEnv{db: db, svc: svc, router: r}
}

// session is a logged-in client.
type session struct {
	userID  string
	cookies []*http.Cookie
}

func (e *handlerEnv) do(t *testing.T, s *session, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s != nil {
		for _, c := range s.cookies {
			req.AddCookie(c)
		}
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login signs username up through the service and logs in over HTTP.
func (e *handlerEnv) login(t *testing.T, username string) *session {
	t.Helper()

	user, err := e.svc.Auth.Signup(context.Background(), services.SignupInput{
		Username: username,
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := e.do(t, nil, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")
	return &session{userID: user.ID, cookies: cookies}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
