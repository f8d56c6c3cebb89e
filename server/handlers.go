package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/backchain/internal/logic"
	"github.com/dekarrin/backchain/server/dao"
	"github.com/dekarrin/backchain/server/middle"
	"github.com/dekarrin/backchain/server/result"
	"github.com/dekarrin/backchain/server/serr"
	"github.com/dekarrin/backchain/server/token"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type CreateSessionRequest struct {
	Source string `json:"source"`
}

type CreateSessionResponse struct {
	SessionID   string   `json:"session_id"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

type SessionInfoResponse struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Source  string    `json:"source"`
}

type QueryRequest struct {
	Symbols string `json:"symbols"`
}

type QueryResultEntry struct {
	Symbol string `json:"symbol"`
	Value  bool   `json:"value"`
}

func (api API) epCreateLogin(req *http.Request) result.Result {
	var loginReq LoginRequest
	if err := parseJSON(req, &loginReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if loginReq.Username == "" {
		return result.BadRequest("username: property is empty or missing from request", "empty username")
	}
	if loginReq.Password == "" {
		return result.BadRequest("password: property is empty or missing from request", "empty password")
	}

	user, err := api.DB.Users().GetByUsername(req.Context(), loginReq.Username)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return result.Unauthorized(serr.ErrBadCredentials.Error(), "user %q: not found", loginReq.Username)
		}
		return result.InternalServerError(err.Error())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginReq.Password)); err != nil {
		return result.Unauthorized(serr.ErrBadCredentials.Error(), "user %q: %s", loginReq.Username, err.Error())
	}

	tok, err := token.Generate(api.Secret, user)
	if err != nil {
		return result.InternalServerError("could not generate JWT: %s", err.Error())
	}

	resp := LoginResponse{Token: tok, UserID: user.ID.String()}
	return result.Created(resp, "user %q successfully logged in", user.Username)
}

func (api API) epCreateSession(req *http.Request) result.Result {
	user := contextUser(req)

	var createReq CreateSessionRequest
	if err := parseJSON(req, &createReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	kb, diags, err := logic.Load(createReq.Source)
	if err != nil {
		return result.BadRequest(err.Error(), "could not parse knowledge base: %s", err.Error())
	}

	sesh := dao.Session{
		UserID: user.ID,
		Source: createReq.Source,
		Facts:  kb.Facts,
	}
	sesh, err = api.DB.Sessions().Create(req.Context(), sesh)
	if err != nil {
		return result.InternalServerError("could not create session: %s", err.Error())
	}

	return result.Created(CreateSessionResponse{
		SessionID:   sesh.ID.String(),
		Diagnostics: diags.Lines(),
	}, "created session %s for user %q", sesh.ID, user.Username)
}

func (api API) epGetSession(req *http.Request) result.Result {
	user := contextUser(req)

	sesh, r := api.requireOwnedSession(req, user)
	if r != nil {
		return *r
	}

	return result.OK(SessionInfoResponse{
		ID:      sesh.ID.String(),
		Created: sesh.Created,
		Source:  sesh.Source,
	})
}

func (api API) epQuerySession(req *http.Request) result.Result {
	user := contextUser(req)

	sesh, r := api.requireOwnedSession(req, user)
	if r != nil {
		return *r
	}

	var queryReq QueryRequest
	if err := parseJSON(req, &queryReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	kb, _, err := logic.Load(sesh.Source)
	if err != nil {
		return result.InternalServerError("stored source for session %s no longer parses: %s", sesh.ID, err.Error())
	}

	session := logic.NewSessionWithFacts(kb, sesh.Facts)
	results := logic.ResolveQueries(session, []rune(queryReq.Symbols))

	entries := make([]QueryResultEntry, len(results))
	for i, res := range results {
		entries[i] = QueryResultEntry{Symbol: string(res.Symbol), Value: res.Value}
	}

	sesh.Facts = session.Facts()
	if _, err := api.DB.Sessions().Update(req.Context(), sesh.ID, sesh); err != nil {
		return result.InternalServerError("could not persist session %s: %s", sesh.ID, err.Error())
	}

	return result.OK(entries, "resolved %d quer(y/ies) for session %s", len(entries), sesh.ID)
}

func (api API) epDeleteSession(req *http.Request) result.Result {
	user := contextUser(req)

	sesh, r := api.requireOwnedSession(req, user)
	if r != nil {
		return *r
	}

	if _, err := api.DB.Sessions().Delete(req.Context(), sesh.ID); err != nil {
		return result.InternalServerError("could not delete session %s: %s", sesh.ID, err.Error())
	}

	return result.NoContent("deleted session %s", sesh.ID)
}

func (api API) epResetSession(req *http.Request) result.Result {
	user := contextUser(req)

	sesh, r := api.requireOwnedSession(req, user)
	if r != nil {
		return *r
	}

	kb, _, err := logic.Load(sesh.Source)
	if err != nil {
		return result.InternalServerError("stored source for session %s no longer parses: %s", sesh.ID, err.Error())
	}

	session := logic.NewSessionWithFacts(kb, sesh.Facts)
	session.PurgeFalse()
	sesh.Facts = session.Facts()

	sesh, err = api.DB.Sessions().Update(req.Context(), sesh.ID, sesh)
	if err != nil {
		return result.InternalServerError("could not persist session %s: %s", sesh.ID, err.Error())
	}

	return result.OK(SessionInfoResponse{
		ID:      sesh.ID.String(),
		Created: sesh.Created,
		Source:  sesh.Source,
	}, "purged false facts for session %s", sesh.ID)
}

// requireOwnedSession looks up the {id} path param and checks that it
// belongs to user (or user is an admin). On failure, r is non-nil and must
// be returned by the calling handler as-is.
func (api API) requireOwnedSession(req *http.Request, user dao.User) (dao.Session, *result.Result) {
	idStr := chi.URLParam(req, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		r := result.BadRequest("id: not a valid session ID", "bad session id %q", idStr)
		return dao.Session{}, &r
	}

	sesh, err := api.DB.Sessions().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			r := result.NotFound("session %s not found", id)
			return dao.Session{}, &r
		}
		r := result.InternalServerError(err.Error())
		return dao.Session{}, &r
	}

	if sesh.UserID != user.ID && user.Role != dao.Admin {
		r := result.Forbidden("user %q does not own session %s", user.Username, id)
		return dao.Session{}, &r
	}

	return sesh, nil
}

func contextUser(req *http.Request) dao.User {
	u, _ := req.Context().Value(middle.AuthUser).(dao.User)
	return u
}

// parseJSON decodes the JSON body of req into v, which must be a pointer.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}

	if err := json.Unmarshal(bodyData, v); err != nil {
		return fmt.Errorf("malformed JSON in request")
	}

	return nil
}
