package web

import (
	"bytes"
	"database/sql"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/bottles/internal/bottle"
	"github.com/hpungsan/bottles/internal/config"
	"github.com/hpungsan/bottles/internal/errors"
	"github.com/hpungsan/bottles/internal/ops"
)

// Notices shown on the board after a redirect.
const (
	noticeImported = "imported"
	noticeRejected = "rejected"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	defaults bottle.Collection
	renderer *Renderer
}

// HandleBoard handles GET /: the board, or the state as JSON.
func (h *Handlers) HandleBoard(w http.ResponseWriter, r *http.Request) {
	state, err := ops.Show(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, state)
		return
	}

	h.renderBoard(w, r, *state, noticeText(r.URL.Query().Get("notice")))
}

// HandleHelp handles GET /help: usage notes rendered from markdown.
func (h *Handlers) HandleHelp(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "help", HelpPageData{
		PageData: PageData{
			Title:   "Help",
			Version: h.renderer.version,
			Nav:     "help",
		},
		RenderedHTML: renderMarkdown(helpMarkdown),
	})
}

// HandleToggleEdit handles POST /mode: switch between view and edit mode.
func (h *Handlers) HandleToggleEdit(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ToggleEdit(r.Context(), h.db)
	h.respond(w, r, out, err)
}

// HandleClick handles POST /bottles/{id}/click: move a level one division.
func (h *Handlers) HandleClick(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	out, err := ops.Click(r.Context(), h.db, ops.ClickInput{
		ID:        chi.URLParam(r, "id"),
		Direction: bottle.Direction(r.PostFormValue("direction")),
	})
	h.respond(w, r, out, err)
}

// HandleStep handles POST /bottles/{id}/step: adjust a level by delta steps.
func (h *Handlers) HandleStep(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	delta, err := strconv.Atoi(r.PostFormValue("delta"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("delta must be an integer"))
		return
	}
	out, err := ops.Step(r.Context(), h.db, ops.StepInput{
		ID:    chi.URLParam(r, "id"),
		Delta: delta,
	})
	h.respond(w, r, out, err)
}

// HandleSelect handles POST /bottles/{id}/select: toggle the editing target.
func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Select(r.Context(), h.db, ops.SelectInput{ID: chi.URLParam(r, "id")})
	h.respond(w, r, out, err)
}

// HandleAdd handles POST /bottles: append a new bottle.
func (h *Handlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Add(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, out)
		return
	}
	h.respond(w, r, &out.TransitionOutput, nil)
}

// HandleRemove handles DELETE /bottles/{id} and POST /bottles/{id}/remove.
func (h *Handlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Remove(r.Context(), h.db, ops.RemoveInput{ID: chi.URLParam(r, "id")})
	h.respond(w, r, out, err)
}

// HandleUpdate handles POST /bottles/{id}: edit label, level or color.
// Fields absent from the form are left unchanged; use_global clears the
// color override.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	input := ops.UpdateInput{ID: chi.URLParam(r, "id")}
	if v, ok := formValue(r.PostForm, "answer"); ok {
		input.Answer = &v
	}
	if v, ok := formValue(r.PostForm, "level"); ok && v != "" {
		level, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("level must be a number"))
			return
		}
		input.Level = &level
	}
	if parseBool(r.PostFormValue("use_global")) {
		color := bottle.UseGlobal
		input.Color = &color
	} else if v, ok := formValue(r.PostForm, "color"); ok && v != "" {
		input.Color = &v
	}

	out, err := ops.Update(r.Context(), h.db, input)
	h.respond(w, r, out, err)
}

// HandleMove handles POST /bottles/{id}/move: place a bottle before target.
func (h *Handlers) HandleMove(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	out, err := ops.Reorder(r.Context(), h.db, ops.ReorderInput{
		DraggedID: chi.URLParam(r, "id"),
		TargetID:  r.PostFormValue("target"),
	})
	h.respond(w, r, out, err)
}

// HandleSettings handles POST /settings: divisions and global color.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	var input ops.UpdateSettingsInput
	if v := r.PostFormValue("divisions"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("divisions must be an integer"))
			return
		}
		input.Divisions = &d
	}
	if v := r.PostFormValue("global_color"); v != "" {
		input.GlobalColor = &v
	}

	out, err := ops.UpdateSettings(r.Context(), h.db, input)
	h.respond(w, r, out, err)
}

// HandleReset handles POST /reset: restore default levels.
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Reset(r.Context(), h.db, ops.ResetInput{Defaults: h.defaults})
	h.respond(w, r, out, err)
}

// HandleExport handles GET /export: download the snapshot.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	out, err := ops.ExportText(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out.Text)
}

// HandleReport handles GET /export.xlsx: download the board as a workbook.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := ops.ReportTo(r.Context(), h.db, &buf); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ops.ReportFilename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleImport handles POST /import: replace the board with an uploaded
// snapshot. Accepts a multipart "file" field or a raw JSON body.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := ops.Import(r.Context(), h.db, h.cfg, ops.ImportInput{Text: string(data)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	notice := noticeImported
	if !out.Imported {
		notice = noticeRejected
	}

	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, out)
	case isHTMX(r):
		h.renderBoard(w, r, out.State, noticeText(notice))
	default:
		http.Redirect(w, r, "/?notice="+notice, http.StatusSeeOther)
	}
}

// respond writes the outcome of a transition: JSON for API callers, the
// board fragment for htmx, and a redirect back to the board otherwise.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, out *ops.TransitionOutput, err error) {
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, out)
	case isHTMX(r):
		h.renderBoard(w, r, out.State, "")
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (h *Handlers) renderBoard(w http.ResponseWriter, r *http.Request, state ops.State, notice string) {
	maxDivisions := h.cfg.MaxDivisions
	if maxDivisions < state.Settings.Divisions {
		maxDivisions = state.Settings.Divisions
	}

	h.renderer.renderPage(w, r, "board", BoardPageData{
		PageData: PageData{
			Title:   "Bottles",
			Version: h.renderer.version,
			Nav:     "board",
		},
		State:        state,
		MaxDivisions: maxDivisions,
		Notice:       notice,
	})
}

// parseForm parses the request body, rendering an error when it is malformed.
func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return false
	}
	return true
}

// readUpload returns the snapshot bytes from a multipart upload or raw body.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, ops.MaxImportBytes+1<<20)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.NewInvalidRequest("file field is required")
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(io.LimitReader(src, ops.MaxImportBytes+1))
	if err != nil {
		return nil, errors.NewInvalidRequest("failed to read upload")
	}
	if len(data) > ops.MaxImportBytes {
		return nil, errors.NewInvalidRequest("import exceeds maximum size")
	}
	return data, nil
}

// formValue reports a form field and whether it was submitted at all.
func formValue(form url.Values, name string) (string, bool) {
	vs, ok := form[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// parseBool accepts checkbox and flag spellings.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

func noticeText(notice string) string {
	switch notice {
	case noticeImported:
		return "Snapshot imported."
	case noticeRejected:
		return "That file is not a bottles snapshot; nothing was changed."
	}
	return ""
}
