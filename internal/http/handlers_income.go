package http

import (
	"net/http"
	"strings"
)

func (s *Server) handleMonthIncome(w http.ResponseWriter, r *http.Request) {
	out, err := s.deps.Income.Month(r.Context(), strings.TrimSpace(r.URL.Query().Get("month")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ, err := TypeFromQuery(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	out, err := s.deps.Income.Dashboard(r.Context(),
		strings.TrimSpace(q.Get("from")),
		strings.TrimSpace(q.Get("to")),
		typ)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDealsBetween lists deals for an explicit inclusive date range.
func (s *Server) handleDealsBetween(w http.ResponseWriter, r *http.Request) {
	from, to, err := DateRangeFromQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	out, err := s.deps.Income.DealsBetween(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
