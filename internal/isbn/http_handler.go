package isbn

import (
	"net/http"

	"bookpublish/internal/httpx"
)

func init() {
	httpx.MustRegisterStringValidation("isbn", func(code string) bool {
		_, err := ToISBN13(code)
		return err == nil
	})
}

type HTTPHandler struct {
	mgr *Manager
}

func NewHTTPHandler(mgr *Manager) *HTTPHandler {
	return &HTTPHandler{mgr: mgr}
}

type AssignRequest struct {
	Format Format `json:"format" validate:"required,oneof=epub print"`
	// ISBN registers a purchased code instead of drawing from the pool.
	ISBN string `json:"isbn,omitempty" validate:"omitempty,isbn"`
}

// CodeInfo describes one ISBN in both forms.
type CodeInfo struct {
	Input      string `json:"input"`
	Valid      bool   `json:"valid"`
	ISBN13     string `json:"isbn13,omitempty"`
	ISBN10     string `json:"isbn10,omitempty"`
	Hyphenated string `json:"hyphenated,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Describe validates code and converts it to every form it has.
func Describe(code string) CodeInfo {
	info := CodeInfo{Input: code}
	isbn13, err := ToISBN13(code)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Valid = true
	info.ISBN13 = isbn13
	info.Hyphenated = Hyphenate(isbn13)
	if isbn10, err := Convert13To10(isbn13); err == nil {
		info.ISBN10 = isbn10
	}
	return info
}

// List handles GET /v1/books/{bookID}/isbns
// @Summary List a book's ISBNs
// @Tags isbns
// @Produce json
// @Param bookID path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/books/{bookID}/isbns [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.mgr.List(r.Context(), r.PathValue("bookID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.JSONSuccess(w, r, http.StatusOK, records)
}

// Assign handles POST /v1/books/{bookID}/isbns
// @Summary Assign or register an ISBN
// @Description Draws the next ISBN from the registrant pool, or records a purchased one. Repeating a call returns the same record.
// @Tags isbns
// @Accept json
// @Produce json
// @Param bookID path string true "Book ID"
// @Param request body AssignRequest true "Edition and optional ISBN"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Failure 422 {object} httpx.ErrorResponse
// @Router /v1/books/{bookID}/isbns [post]
func (h *HTTPHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	bookID := r.PathValue("bookID")
	var (
		rec Record
		err error
	)
	if req.ISBN != "" {
		rec, err = h.mgr.AssignExisting(r.Context(), bookID, req.Format, req.ISBN)
	} else {
		rec, err = h.mgr.Assign(r.Context(), bookID, req.Format)
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, http.StatusOK, rec)
}

// Lookup handles GET /v1/isbns/{code}
// @Summary Validate and convert an ISBN
// @Tags isbns
// @Produce json
// @Param code path string true "ISBN-10 or ISBN-13"
// @Success 200 {object} httpx.SuccessResponse
// @Router /v1/isbns/{code} [get]
func (h *HTTPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, http.StatusOK, Describe(r.PathValue("code")))
}
