// Package web serves the server-rendered pages and the JSON state API.
package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"caremonitor/internal/gateway"
	"caremonitor/internal/listing"
	"caremonitor/internal/session"
	dErrors "caremonitor/pkg/domain-errors"
	"caremonitor/pkg/platform/httputil"
	"caremonitor/pkg/platform/sentinel"
	"caremonitor/pkg/requestcontext"
	"caremonitor/pkg/validation"
)

// Flash texts.
const (
	LoginSucceededMessage = "Login successful!"
	ItemsLoadedMessage    = "Items loaded successfully!"
)

// UnderDevelopmentPaths are linked from the navigation but not built yet.
var UnderDevelopmentPaths = []string{"/profile", "/settings", "/reports"}

// Handler serves every page. Session state comes from the request context
// (see middleware.Session); list state is opened per session owner.
type Handler struct {
	lists        *listing.Service
	logger       *slog.Logger
	views        *renderer
	cookieSecure bool
}

func NewHandler(lists *listing.Service, logger *slog.Logger, cookieSecure bool) (*Handler, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		lists:        lists,
		logger:       logger,
		views:        views,
		cookieSecure: cookieSecure,
	}, nil
}

// RegisterPublic mounts the routes reachable without a session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/login", h.HandleLoginPage)
	r.Post("/login", h.HandleLogin)
	r.Get("/logout", h.HandleLogoutPage)
	r.Post("/logout", h.HandleLogout)
	r.Get("/api/session", h.HandleSessionState)
}

// RegisterPages mounts the guarded pages.
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/list", h.HandleList)
	for _, path := range UnderDevelopmentPaths {
		r.Get(path, h.HandleUnderDevelopment)
	}
}

// RegisterAPI mounts the guarded JSON list endpoints.
func (h *Handler) RegisterAPI(r chi.Router) {
	r.Get("/api/list", h.HandleListState)
	r.Post("/api/list/fetch", h.HandleListFetch)
	r.Post("/api/list/reset", h.HandleListReset)
}

func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, session.LoginPath, http.StatusFound)
}

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	if st.CheckIsAuthenticated() {
		http.Redirect(w, r, session.DashboardPath, http.StatusFound)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginView{})
}

// HandleLogin validates the form before anything reaches the session store.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	form, err := parseLoginForm(r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to parse login form",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	if err := httputil.PrepareRequest(form); err != nil {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, loginView{
			Email:  form.Email,
			Fields: validation.Fields(err),
		})
		return
	}

	st := session.FromContext(ctx)
	if _, err := st.Login(ctx, form.credentials()); err != nil {
		h.renderLogin(w, r, http.StatusUnauthorized, loginView{
			Email: form.Email,
			Error: st.State().Error,
		})
		return
	}

	setFlash(w, Notice{Kind: NoticeSuccess, Text: LoginSucceededMessage}, h.cookieSecure)
	http.Redirect(w, r, h.target(r, session.DashboardPath), http.StatusSeeOther)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginView) {
	h.render(w, r, status, pageLogin, "Login", data)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	h.render(w, r, http.StatusOK, pageDashboard, "Dashboard", struct{ Email string }{
		Email: st.GetUserEmail(),
	})
}

// HandleList fetches the requested page and renders whatever state results,
// including stale items after a failure.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := gateway.ParseListQuery(r.URL.Query())

	list := h.openList(r)
	fetchErr := list.Fetch(ctx, query)
	if target := h.upstreamRedirect(r); target != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	state := list.State()
	var notice *Notice
	switch {
	case fetchErr != nil:
		notice = &Notice{Kind: NoticeError, Text: listing.LoadFailedMessage}
	case len(state.Items) > 0:
		notice = &Notice{Kind: NoticeSuccess, Text: ItemsLoadedMessage}
	}
	h.renderWithNotice(w, r, http.StatusOK, pageList, "Patients", state, notice)
}

func (h *Handler) HandleUnderDevelopment(w http.ResponseWriter, r *http.Request) {
	msg := fmt.Sprintf("The page %q is currently under development.", r.URL.Path)
	setFlash(w, Notice{Kind: NoticeInfo, Text: msg}, h.cookieSecure)
	http.Redirect(w, r, "/list", http.StatusFound)
}

// HandleNotFound is the catch-all for unknown paths.
func (h *Handler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	msg := fmt.Sprintf("The page %q does not exist.", r.URL.Path)
	setFlash(w, Notice{Kind: NoticeError, Text: msg}, h.cookieSecure)
	http.Redirect(w, r, "/list", http.StatusFound)
}

func (h *Handler) HandleLogoutPage(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	if !st.CheckIsAuthenticated() {
		http.Redirect(w, r, session.LoginPath, http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, pageLogout, "Logout", session.LogoutPrompt)
}

// HandleLogout answers the confirmation dialog: confirm=yes logs out,
// anything else returns to the dashboard.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.FromContext(ctx)
	owner := st.Owner()

	confirmed, err := st.Logout(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read logout confirmation",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	if !confirmed {
		http.Redirect(w, r, session.DashboardPath, http.StatusSeeOther)
		return
	}
	if owner != "" {
		if err := h.lists.Discard(ctx, owner); err != nil {
			h.logger.WarnContext(ctx, "failed to discard list state",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	http.Redirect(w, r, h.target(r, session.LoginPath), http.StatusSeeOther)
}

func (h *Handler) HandleSessionState(w http.ResponseWriter, r *http.Request) {
	st := session.FromContext(r.Context())
	st.CheckIsAuthenticated()
	httputil.WriteJSON(w, http.StatusOK, st.State())
}

func (h *Handler) HandleListState(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.openList(r).State())
}

// HandleListFetch runs a fetch for the caller's session. An upstream 401 or
// 403 seen during the fetch wins over its result, since Remote answers both
// with fallback data.
func (h *Handler) HandleListFetch(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[fetchRequest](w, r, h.logger)
	if !ok {
		return
	}
	list := h.openList(r)
	err := list.Fetch(r.Context(), req.query())
	switch h.upstreamRedirect(r) {
	case session.LoginPath:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session expired"))
		return
	case session.DashboardPath:
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "access denied"))
		return
	}
	if err != nil {
		httputil.WriteError(w, upstreamError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list.State())
}

func (h *Handler) HandleListReset(w http.ResponseWriter, r *http.Request) {
	list := h.lists.Open(session.FromContext(r.Context()).Owner())
	list.Reset(r.Context())
	httputil.WriteJSON(w, http.StatusOK, list.State())
}

// openList opens the caller's list store with whatever earlier requests of
// the same session left behind.
func (h *Handler) openList(r *http.Request) *listing.Store {
	ctx := r.Context()
	list := h.lists.Open(session.FromContext(ctx).Owner())
	if err := list.Sync(ctx); err != nil {
		// Starting from the initial state is still a valid answer.
		h.logger.WarnContext(ctx, "failed to sync list state",
			"error", err,
			"unavailable", errors.Is(err, sentinel.ErrUnavailable),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return list
}

// upstreamError maps a gateway failure onto a domain error for JSON clients.
func upstreamError(err error) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	msg := gateway.ExtractMessage(err)
	if msg == "" {
		msg = listing.LoadFailedMessage
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}

// upstreamRedirect is where an upstream 401 (login) or 403 (dashboard) seen
// during this request sends the browser, or "".
func (h *Handler) upstreamRedirect(r *http.Request) string {
	if h.sessionDropped(r) {
		return session.LoginPath
	}
	if nav := session.RedirectFromContext(r.Context()); nav != nil && nav.Target() == session.DashboardPath {
		return session.DashboardPath
	}
	return ""
}

// sessionDropped reports whether the upstream rejected the session token
// during this request.
func (h *Handler) sessionDropped(r *http.Request) bool {
	nav := session.RedirectFromContext(r.Context())
	return nav != nil && nav.Target() == session.LoginPath && !session.FromContext(r.Context()).State().IsAuthenticated
}

// target is where the session store asked to navigate, or fallback.
func (h *Handler) target(r *http.Request, fallback string) string {
	if nav := session.RedirectFromContext(r.Context()); nav != nil && nav.Target() != "" {
		return nav.Target()
	}
	return fallback
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	h.renderWithNotice(w, r, status, page, title, data, nil)
}

// renderWithNotice shows the pending flash, if any, followed by notice.
func (h *Handler) renderWithNotice(w http.ResponseWriter, r *http.Request, status int, page, title string, data any, notice *Notice) {
	var notices []Notice
	if pending := popFlash(w, r); pending != nil {
		notices = append(notices, *pending)
	}
	if notice != nil {
		notices = append(notices, *notice)
	}
	st := session.FromContext(r.Context())
	v := view{
		Title:         title,
		Authenticated: st != nil && st.State().IsAuthenticated,
		Notices:       notices,
		Data:          data,
	}
	if err := h.views.render(w, status, page, v); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			"error", err,
			"page", page,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
