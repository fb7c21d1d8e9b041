// Package upload pushes locally-edited FreeSurfer output files back to the
// matching assessor on an XNAT archive and flags it for reprocessing.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/KarthikMasi/dax-local/internal/metrics"
	"github.com/KarthikMasi/dax-local/internal/xnat"
	"github.com/jonboulle/clockwork"
)

const (
	// editsResource is the assessor resource the edited files land in.
	editsResource = "EDITS"

	// procStatusAttr / needToRun flag the assessor for the pipeline scheduler.
	procStatusAttr = "proc:genProcData/procstatus"
	needToRun      = "NEED_TO_RUN"

	stampLayout = "20060102-150405"
)

// editFiles are the well-known edit outputs, relative to the subject directory.
// Absence of any of them is reported but never fatal.
var editFiles = []string{
	filepath.Join("mri", "brainmask.edited.mgz"),
	filepath.Join("mri", "wm.edited.mgz"),
	filepath.Join("mri", "aseg.edited.mgz"),
	filepath.Join("tmp", "control.dat"),
}

// Archive is the slice of the XNAT client the uploader needs.
type Archive interface {
	Sessions(ctx context.Context, project string) ([]xnat.Session, error)
	Assessors(ctx context.Context, project, subjectID, sessionLabel string) ([]xnat.Assessor, error)
	UploadFile(ctx context.Context, a xnat.Assessor, resource, name string, r io.Reader) error
	SetAttribute(ctx context.Context, a xnat.Assessor, attr, value string) error
}

// Uploader runs the edit-upload workflow against one archive.
type Uploader struct {
	Archive     Archive
	SubjectsDir string
	Clock       clockwork.Clock
}

func New(archive Archive, subjectsDir string) *Uploader {
	return &Uploader{
		Archive:     archive,
		SubjectsDir: subjectsDir,
		Clock:       clockwork.NewRealClock(),
	}
}

// Run uploads any present edit files for the given session and marks the
// resolved assessor as needing reprocessing. suffix disambiguates when the
// session carries more than one FreeSurfer assessor.
func (u *Uploader) Run(ctx context.Context, project, session, suffix string) error {
	subjectDir := filepath.Join(u.SubjectsDir, session)
	if info, err := os.Stat(subjectDir); err != nil || !info.IsDir() {
		return &LocalPathError{Path: subjectDir}
	}

	assessor, err := u.resolveAssessor(ctx, project, session, suffix)
	if err != nil {
		return err
	}
	slog.Info("Resolved assessor", "label", assessor.Label, "procstatus", assessor.ProcStatus)

	stamp := u.Clock.Now().Format(stampLayout)
	uploaded := 0
	for _, rel := range editFiles {
		local := filepath.Join(subjectDir, rel)
		if _, err := os.Stat(local); err != nil {
			slog.Info("Edit file not present, skipping", "file", rel)
			continue
		}

		if err := u.uploadOne(ctx, assessor, local, stamp); err != nil {
			// Keep going: remaining files and the status flip still matter
			slog.Error("Upload failed", "file", rel, "err", err)
			metrics.EditUploads.WithLabelValues("error").Inc()
			continue
		}
		metrics.EditUploads.WithLabelValues("ok").Inc()
		uploaded++
	}

	if err := u.Archive.SetAttribute(ctx, assessor, procStatusAttr, needToRun); err != nil {
		return fmt.Errorf("failed to flag assessor for reprocessing: %w", err)
	}

	slog.Info("Upload complete", "assessor", assessor.Label, "uploaded", uploaded, "status", needToRun)
	return nil
}

func (u *Uploader) resolveAssessor(ctx context.Context, project, session, suffix string) (xnat.Assessor, error) {
	sessions, err := u.Archive.Sessions(ctx, project)
	if err != nil {
		return xnat.Assessor{}, err
	}

	var match *xnat.Session
	for i, s := range sessions {
		if s.Label == session {
			match = &sessions[i]
			break
		}
	}
	if match == nil {
		return xnat.Assessor{}, &NotFoundError{What: "session", Project: project, Session: session}
	}

	assessors, err := u.Archive.Assessors(ctx, project, match.SubjectID, match.Label)
	if err != nil {
		return xnat.Assessor{}, err
	}

	return resolve(assessors, project, session, suffix)
}

func (u *Uploader) uploadOne(ctx context.Context, assessor xnat.Assessor, local, stamp string) error {
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", local, err)
	}
	defer f.Close()

	name := stampedName(filepath.Base(local), stamp)
	if err := u.Archive.UploadFile(ctx, assessor, editsResource, name, f); err != nil {
		return err
	}

	slog.Info("Uploaded edit file", "file", filepath.Base(local), "as", name)
	return nil
}

// stampedName inserts the timestamp before the extension so downstream
// tooling still recognizes the file type: wm.edited.mgz -> wm.edited-<stamp>.mgz.
func stampedName(base, stamp string) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s-%s%s", stem, stamp, ext)
}
