package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pavelanni/examtracker/internal/apperrors"
	"github.com/pavelanni/examtracker/internal/model"
	"github.com/pavelanni/examtracker/internal/report"
	"github.com/pavelanni/examtracker/internal/tracker"
)

const maxUploadSize = 32 << 20

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	backup := h.tracker.Export()
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		h.writeError(w, err)
		return
	}
	name := fmt.Sprintf("exam-tracker-backup-%s.json", backup.ExportDate.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := report.Workbook(r.Context(), h.tracker.Exams())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="exam-tracker.xlsx"`)
	w.Write(data)
}

type importResponse struct {
	Duplicate bool `json:"duplicate"`
	Subjects  int  `json:"subjects"`
	Exams     int  `json:"exams"`
}

// handleImport accepts a backup either as a multipart "backup_file" upload or as the
// raw request body. A file whose content was already imported under the same name is
// skipped unless force=true.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	mode := model.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = model.ImportMerge
	}

	var (
		data     []byte
		filename string
		err      error
	)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ferr := r.FormFile("backup_file")
		if ferr != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "no file uploaded"})
			return
		}
		defer file.Close()
		filename = header.Filename
		data, err = io.ReadAll(file)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read upload"})
		return
	}

	var hash string
	if filename != "" && h.imports != nil {
		sum := sha256.Sum256(data)
		hash = hex.EncodeToString(sum[:])
		stored, err := h.imports.GetImportedFileHash(filename)
		if err != nil {
			h.writeError(w, fmt.Errorf("check import status: %w", err))
			return
		}
		if stored == hash && r.URL.Query().Get("force") != "true" {
			writeJSON(w, http.StatusOK, importResponse{Duplicate: true})
			return
		}
	}

	if err := h.tracker.Import(data, mode); err != nil {
		h.writeError(w, err)
		return
	}
	h.dropAllSessions()

	if hash != "" {
		if err := h.imports.SetImportedFileHash(filename, hash); err != nil {
			h.logger.Error("failed to record import", "file", filename, "error", err)
		}
	}
	h.logger.Info("imported backup via API", "file", filename, "mode", mode)
	writeJSON(w, http.StatusOK, importResponse{
		Subjects: len(h.tracker.Subjects()),
		Exams:    len(h.tracker.Exams()),
	})
}

func (h *Handler) handleClearAll(w http.ResponseWriter, r *http.Request) {
	h.tracker.ClearAll()
	h.dropAllSessions()
	w.WriteHeader(http.StatusNoContent)
}

type prefs struct {
	Theme   string   `json:"theme"`
	Accent  string   `json:"accent"`
	Accents []string `json:"accents,omitempty"`
}

func (h *Handler) currentPrefs() prefs {
	return prefs{Theme: h.tracker.Theme(), Accent: h.tracker.Accent(), Accents: tracker.Accents}
}

func (h *Handler) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentPrefs())
}

func (h *Handler) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	h.tracker.ToggleTheme()
	writeJSON(w, http.StatusOK, h.currentPrefs())
}

func (h *Handler) handleSetAccent(w http.ResponseWriter, r *http.Request) {
	var req prefs
	if !h.decode(w, r, &req) {
		return
	}
	if req.Accent == "" {
		h.writeError(w, apperrors.NewValidationError("accent", "is required", req.Accent))
		return
	}
	if err := h.tracker.SetAccent(req.Accent); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.currentPrefs())
}
