package api

import (
	"bytes"
	_ "embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mpapenbr/lapviewer/log"
	"github.com/mpapenbr/lapviewer/pkg/render"
	"github.com/mpapenbr/lapviewer/pkg/repository/racedata"
	"github.com/mpapenbr/lapviewer/pkg/service/viewer"
	"github.com/mpapenbr/lapviewer/pkg/utils/cache"
)

//go:embed page.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

type pageData struct {
	Title   string
	View    viewer.View
	Columns []viewer.Column
	Report  racedata.Report
	Width   int
	Height  int
	Live    bool
}

func pageURL(id string) string {
	return "/?" + url.Values{"session": {id}}.Encode()
}

// handlePage shows the results table and chart of a session. Without a
// known session a new one is created.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	session, err := s.sessions.Get(r.Context(), id)
	if id == "" || errors.Is(err, cache.ErrCacheMiss) {
		session = s.newSession(r)
		http.Redirect(w, r, pageURL(session.ID()), http.StatusSeeOther)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	data := pageData{
		Title:   render.Title,
		View:    session.View(),
		Columns: viewer.Columns,
		Report:  s.data.Store().Report(),
		Width:   s.width,
		Height:  s.height,
		Live:    s.updates != nil,
	}
	buf := bytes.Buffer{}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.GetFromContext(r.Context()).Error("page could not be rendered", log.ErrorField(err))
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.GetFromContext(r.Context()).Warn("page not sent", log.ErrorField(err))
	}
}

// uiUpdate applies msg to the session and returns to the page.
// Expired sessions start over with a new one.
func (s *Server) uiUpdate(w http.ResponseWriter, r *http.Request, msg viewer.Message) {
	session, err := s.lookupSession(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := session.Update(msg); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	http.Redirect(w, r, pageURL(session.ID()), http.StatusSeeOther)
}

func bibParam(r *http.Request) int {
	// the route only matches digits
	bib, _ := strconv.Atoi(mux.Vars(r)["bib"])
	return bib
}

func (s *Server) handleUIToggle(w http.ResponseWriter, r *http.Request) {
	s.uiUpdate(w, r, viewer.SelectionToggled{Bib: bibParam(r)})
}

func (s *Server) handleUIRemove(w http.ResponseWriter, r *http.Request) {
	s.uiUpdate(w, r, viewer.RunnerRemoved{Bib: bibParam(r)})
}

func (s *Server) handleUISort(w http.ResponseWriter, r *http.Request) {
	column, err := viewer.ParseColumn(mux.Vars(r)["column"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.uiUpdate(w, r, viewer.SortRequested{Column: column})
}

func (s *Server) handleUIResize(w http.ResponseWriter, r *http.Request) {
	percent, err := strconv.ParseFloat(r.URL.Query().Get("percent"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s.uiUpdate(w, r, viewer.PanelResized{Percent: percent})
}
