package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fuvest-study-service/internal/app"
	"fuvest-study-service/internal/domain"
)

// APIHandler serves the non-realtime surface: result history, per-year
// practice statistics, question browsing and study progress.
type APIHandler struct {
	service *app.ExamService
}

func NewAPIHandler(service *app.ExamService) *APIHandler {
	return &APIHandler{service: service}
}

// Register wires the JSON routes onto the mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/results", h.listResults)
	mux.HandleFunc("DELETE /api/results/{id}", h.deleteResult)
	mux.HandleFunc("GET /api/stats", h.listStats)
	mux.HandleFunc("GET /api/years", h.listYears)
	mux.HandleFunc("GET /api/practice/{year}/questions", h.practiceQuestions)
	mux.HandleFunc("POST /api/practice/{year}/answer", h.practiceAnswer)
	mux.HandleFunc("POST /api/practice/{year}/reveal", h.practiceReveal)
	mux.HandleFunc("GET /api/syllabus", h.listSyllabus)
	mux.HandleFunc("POST /api/syllabus/{item}/toggle", h.toggleSyllabus)
	mux.HandleFunc("GET /api/books", h.listBooks)
	mux.HandleFunc("PUT /api/books/{id}", h.setBookStatus)
}

func (h *APIHandler) listResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.History(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *APIHandler) deleteResult(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteResult(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) listStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.YearStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		stats = []domain.YearStats{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) listYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Years())
}

func (h *APIHandler) practiceQuestions(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}
	questions, err := h.service.PracticeQuestions(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{
			ID:      q.ID,
			Number:  q.Number,
			Year:    q.Year,
			Stem:    q.Stem,
			Options: q.Options,
			Image:   q.Image,
			Page:    q.Page,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type practiceAnswerRequest struct {
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
}

type practiceAnswerResponse struct {
	Correct     bool                `json:"correct"`
	CorrectKey  string              `json:"correctKey"`
	Stats       domain.YearStats    `json:"stats"`
	Explanation *domain.Explanation `json:"explanation,omitempty"`
}

func (h *APIHandler) practiceAnswer(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}
	var req practiceAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	correct, correctKey, stats, err := h.service.PracticeAnswer(r.Context(), year, req.QuestionID, req.Option)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, practiceAnswerResponse{
		Correct:     correct,
		CorrectKey:  correctKey,
		Stats:       stats,
		Explanation: h.explanationFor(r, year, req.QuestionID),
	})
}

type practiceRevealRequest struct {
	QuestionID string `json:"questionId"`
}

func (h *APIHandler) practiceReveal(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}
	var req practiceRevealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	correctKey, stats, err := h.service.RevealAnswer(r.Context(), year, req.QuestionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, practiceAnswerResponse{
		Correct:     false,
		CorrectKey:  correctKey,
		Stats:       stats,
		Explanation: h.explanationFor(r, year, req.QuestionID),
	})
}

func (h *APIHandler) listSyllabus(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SyllabusItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []string{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *APIHandler) toggleSyllabus(w http.ResponseWriter, r *http.Request) {
	checked, err := h.service.ToggleSyllabusItem(r.Context(), r.PathValue("item"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"checked": checked})
}

func (h *APIHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.BookStatuses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

type bookStatusRequest struct {
	Status string `json:"status"`
}

func (h *APIHandler) setBookStatus(w http.ResponseWriter, r *http.Request) {
	var req bookStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.service.SetBookStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// explanationFor surfaces the study material once a question has been
// graded or revealed. Lookup failures are non-fatal.
func (h *APIHandler) explanationFor(r *http.Request, year int, questionID string) *domain.Explanation {
	questions, err := h.service.PracticeQuestions(r.Context(), year)
	if err != nil {
		return nil
	}
	for _, q := range questions {
		if q.ID == questionID {
			return q.Explanation
		}
	}
	return nil
}

func yearParam(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("year"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrBankNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrSessionClosed):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
