package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/service"
)

//go:embed templates/*.html
var templates embed.FS

// pages are parsed once; each is the shared layout plus one content file.
var pages = map[string]*template.Template{
	"index":        parsePage("index.html"),
	"poem":         parsePage("poem.html"),
	"feed":         parsePage("feed.html"),
	"login":        parsePage("login.html"),
	"display-name": parsePage("display_name.html"),
}

func parsePage(file string) *template.Template {
	return template.Must(template.ParseFS(templates, "templates/layout.html", "templates/"+file))
}

type pageData struct {
	User *domain.User
}

type indexPageData struct {
	pageData
	Poets []*corpus.Poet
}

type poemPageData struct {
	pageData
	Poem *PoemResponse
}

type feedPageData struct {
	pageData
	Posts []*domain.FeedPost
}

type loginPageData struct {
	pageData
	GoogleEnabled bool
	DevLogin      bool
}

func (s *Server) registerPageRoutes() {
	s.router.Get("/", s.handleIndexPage)
	s.router.Get("/poems/{poetId}/{bookId}/{sectionId}/{poemId}", s.handlePoemPage)
	s.router.Get("/feed", s.handleFeedPage)
	s.router.Get(loginPath, s.handleLoginPage)
	s.router.With(s.requireBrowserUser).Get(service.DisplayNamePath, s.handleDisplayNamePage)
}

// handleIndexPage lists the corpus.
// GET /
func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", indexPageData{
		pageData: s.page(r),
		Poets:    s.library.Snapshot().Poets,
	})
}

// handlePoemPage shows one poem with couplet selection for sharing.
// GET /poems/{poetId}/{bookId}/{sectionId}/{poemId}
func (s *Server) handlePoemPage(w http.ResponseWriter, r *http.Request) {
	view, err := poemView(s.library.Snapshot(),
		chi.URLParam(r, "poetId"),
		chi.URLParam(r, "bookId"),
		chi.URLParam(r, "sectionId"),
		chi.URLParam(r, "poemId"),
	)
	if err != nil {
		// Plain-text per-level message.
		if corpus.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.writeError(w, err)
		return
	}
	s.render(w, http.StatusOK, "poem", poemPageData{pageData: s.page(r), Poem: view})
}

// handleFeedPage renders the feed for the current viewer.
// GET /feed
func (s *Server) handleFeedPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	posts, err := service.Collect(s.services.Feed.ListFeed(ctx, viewerID(ctx)))
	if err != nil {
		s.logger.Error("failed to render feed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "feed", feedPageData{pageData: s.page(r), Posts: posts})
}

// handleLoginPage offers the sign-in methods that are configured.
// GET /auth/login
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login", loginPageData{
		pageData:      s.page(r),
		GoogleEnabled: s.google != nil,
		DevLogin:      s.opts.DevLogin,
	})
}

// handleDisplayNamePage asks a new user for a display name.
// GET /profile/display-name
func (s *Server) handleDisplayNamePage(w http.ResponseWriter, r *http.Request) {
	data := s.page(r)
	if !data.User.RequiresDisplayName() {
		http.Redirect(w, r, defaultLanding, http.StatusFound)
		return
	}
	s.render(w, http.StatusOK, "display-name", data)
}

func (s *Server) page(r *http.Request) pageData {
	return pageData{User: userFromContext(r.Context())}
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages[name].ExecuteTemplate(w, "layout", data); err != nil {
		s.logger.Error("failed to execute template", "page", name, "error", err)
	}
}
