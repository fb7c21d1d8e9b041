package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KarthikMasi/dax-local/internal/xnat"
	"github.com/jonboulle/clockwork"
)

// fakeArchive records calls instead of talking to a server.
type fakeArchive struct {
	sessions  []xnat.Session
	assessors []xnat.Assessor

	uploads    []uploadCall
	attributes []attributeCall
	uploadErr  map[string]error
}

type uploadCall struct {
	assessor string
	resource string
	name     string
	contents string
}

type attributeCall struct {
	assessor string
	attr     string
	value    string
}

func (f *fakeArchive) Sessions(ctx context.Context, project string) ([]xnat.Session, error) {
	return f.sessions, nil
}

func (f *fakeArchive) Assessors(ctx context.Context, project, subjectID, sessionLabel string) ([]xnat.Assessor, error) {
	return f.assessors, nil
}

func (f *fakeArchive) UploadFile(ctx context.Context, a xnat.Assessor, resource, name string, r io.Reader) error {
	if err, bad := f.uploadErr[name]; bad {
		return err
	}
	data, _ := io.ReadAll(r)
	f.uploads = append(f.uploads, uploadCall{
		assessor: a.Label,
		resource: resource,
		name:     name,
		contents: string(data),
	})
	return nil
}

func (f *fakeArchive) SetAttribute(ctx context.Context, a xnat.Assessor, attr, value string) error {
	f.attributes = append(f.attributes, attributeCall{assessor: a.Label, attr: attr, value: value})
	return nil
}

func newTestUploader(t *testing.T, archive *fakeArchive) (*Uploader, string) {
	t.Helper()
	subjectsDir := t.TempDir()
	u := New(archive, subjectsDir)
	u.Clock = clockwork.NewFakeClockAt(time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC))
	return u, subjectsDir
}

func writeSubjectFile(t *testing.T, subjectsDir, session, rel, contents string) {
	t.Helper()
	path := filepath.Join(subjectsDir, session, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func singleAssessorArchive() *fakeArchive {
	return &fakeArchive{
		sessions: []xnat.Session{
			{ID: "XNAT_E001", Label: "SUBJ001_MR1", SubjectID: "XNAT_S001"},
			{ID: "XNAT_E002", Label: "SUBJ002_MR1", SubjectID: "XNAT_S002"},
		},
		assessors: []xnat.Assessor{
			{Label: "SUBJ001-x-FreeSurfer", ProcType: "FreeSurfer"},
			{Label: "SUBJ001-x-dtiQA", ProcType: "dtiQA"},
		},
	}
}

func TestRunFailsWhenSubjectDirMissing(t *testing.T) {
	u, _ := newTestUploader(t, singleAssessorArchive())

	err := u.Run(context.Background(), "Proj", "SUBJ001_MR1", "")

	var lpe *LocalPathError
	if !errors.As(err, &lpe) {
		t.Fatalf("Expected LocalPathError, got %v", err)
	}
}

func TestRunFailsWhenSessionUnknown(t *testing.T) {
	u, subjectsDir := newTestUploader(t, singleAssessorArchive())
	writeSubjectFile(t, subjectsDir, "SUBJ999_MR1", filepath.Join("mri", "wm.edited.mgz"), "wm")

	err := u.Run(context.Background(), "Proj", "SUBJ999_MR1", "")

	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestRunUploadsOnlyPresentFiles(t *testing.T) {
	archive := singleAssessorArchive()
	u, subjectsDir := newTestUploader(t, archive)
	writeSubjectFile(t, subjectsDir, "SUBJ001_MR1", filepath.Join("mri", "wm.edited.mgz"), "wm bytes")

	if err := u.Run(context.Background(), "Proj", "SUBJ001_MR1", ""); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if len(archive.uploads) != 1 {
		t.Fatalf("Expected exactly 1 upload, got %d", len(archive.uploads))
	}

	up := archive.uploads[0]
	if up.assessor != "SUBJ001-x-FreeSurfer" {
		t.Errorf("Expected upload to SUBJ001-x-FreeSurfer, got %s", up.assessor)
	}
	if up.resource != "EDITS" {
		t.Errorf("Expected EDITS resource, got %s", up.resource)
	}
	if up.name != "wm.edited-20260829-153000.mgz" {
		t.Errorf("Expected timestamped name, got %s", up.name)
	}
	if up.contents != "wm bytes" {
		t.Errorf("Expected file contents to be streamed, got %q", up.contents)
	}

	// Status flip still happens
	if len(archive.attributes) != 1 {
		t.Fatalf("Expected 1 attribute set, got %d", len(archive.attributes))
	}
	attr := archive.attributes[0]
	if attr.attr != "proc:genProcData/procstatus" || attr.value != "NEED_TO_RUN" {
		t.Errorf("Expected procstatus NEED_TO_RUN, got %s=%s", attr.attr, attr.value)
	}
}

func TestRunUploadsAllFourWhenPresent(t *testing.T) {
	archive := singleAssessorArchive()
	u, subjectsDir := newTestUploader(t, archive)
	for _, rel := range editFiles {
		writeSubjectFile(t, subjectsDir, "SUBJ001_MR1", rel, "data")
	}

	if err := u.Run(context.Background(), "Proj", "SUBJ001_MR1", ""); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	if len(archive.uploads) != len(editFiles) {
		t.Errorf("Expected %d uploads, got %d", len(editFiles), len(archive.uploads))
	}
}

func TestRunContinuesPastUploadFailure(t *testing.T) {
	archive := singleAssessorArchive()
	archive.uploadErr = map[string]error{
		"brainmask.edited-20260829-153000.mgz": fmt.Errorf("boom"),
	}
	u, subjectsDir := newTestUploader(t, archive)
	writeSubjectFile(t, subjectsDir, "SUBJ001_MR1", filepath.Join("mri", "brainmask.edited.mgz"), "bm")
	writeSubjectFile(t, subjectsDir, "SUBJ001_MR1", filepath.Join("mri", "wm.edited.mgz"), "wm")

	if err := u.Run(context.Background(), "Proj", "SUBJ001_MR1", ""); err != nil {
		t.Fatalf("Expected success despite one failed upload, got %v", err)
	}

	if len(archive.uploads) != 1 {
		t.Errorf("Expected the surviving upload to go through, got %d", len(archive.uploads))
	}
	if len(archive.attributes) != 1 {
		t.Errorf("Expected status flip despite failed upload, got %d attribute sets", len(archive.attributes))
	}
}

func TestRunResolvesWithSuffix(t *testing.T) {
	archive := singleAssessorArchive()
	archive.assessors = []xnat.Assessor{
		{Label: "SUBJ001-x-FreeSurfer_v1", ProcType: "FreeSurfer"},
		{Label: "SUBJ001-x-FreeSurfer_v2", ProcType: "FreeSurfer"},
	}
	u, subjectsDir := newTestUploader(t, archive)
	writeSubjectFile(t, subjectsDir, "SUBJ001_MR1", filepath.Join("tmp", "control.dat"), "pts")

	// Without a suffix, two matches are an error
	err := u.Run(context.Background(), "Proj", "SUBJ001_MR1", "")
	var ame *AmbiguousMatchError
	if !errors.As(err, &ame) {
		t.Fatalf("Expected AmbiguousMatchError, got %v", err)
	}

	// With the suffix, resolution picks the one match
	if err := u.Run(context.Background(), "Proj", "SUBJ001_MR1", "v2"); err != nil {
		t.Fatalf("Expected success with suffix, got %v", err)
	}
	if len(archive.attributes) != 1 || archive.attributes[0].assessor != "SUBJ001-x-FreeSurfer_v2" {
		t.Errorf("Expected status set on SUBJ001-x-FreeSurfer_v2, got %+v", archive.attributes)
	}
}
