package service

import (
	"bytes"
	"context"
	"io"
	"questionnaire_backend/internal/repository"
	"questionnaire_backend/internal/util"
	"strings"
	"testing"
	"time"

	_ "time/tzdata"
)

func newExportService(env *testEnv) *ExportService {
	timezones := NewTimeZoneService(repository.NewTimeZoneRepository(env.db), nil)
	return NewExportService(env.forms, env.submissions, env.exports, env.storage, timezones, time.Hour)
}

func seedSubmissions(t *testing.T, env *testEnv) {
	t.Helper()
	svc := env.submissionService()
	for _, ref := range []string{"alice", "bob"} {
		if _, err := svc.Submit(context.Background(), "public-key", &SubmitRequest{RespondentRef: ref, Answers: validAnswers()}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
}

func readAll(t *testing.T, svc *ExportService, id string) []byte {
	t.Helper()
	_, body, err := svc.Download(context.Background(), id)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	return data
}

func TestCreateExportFormats(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	seedSubmissions(t, env)
	svc := newExportService(env)
	ctx := context.Background()

	cases := []struct {
		format string
		magic  []byte
	}{
		{"csv", []byte("\ufeff")},
		{"xlsx", []byte("PK")},
		{"pdf", []byte("%PDF")},
	}
	for _, c := range cases {
		artifact, err := svc.CreateExport(ctx, 1, &ExportRequest{Format: c.format, TimeZone: "EST"})
		if err != nil {
			t.Fatalf("%s: CreateExport: %v", c.format, err)
		}
		if !strings.HasSuffix(artifact.FileName, "."+c.format) || artifact.Size == 0 {
			t.Fatalf("%s: unexpected artifact %+v", c.format, artifact)
		}
		data := readAll(t, svc, artifact.ID)
		if !bytes.HasPrefix(data, c.magic) {
			t.Fatalf("%s: unexpected file prefix %q", c.format, data[:8])
		}
	}
}

func TestCreateExportCSVContent(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	seedSubmissions(t, env)
	svc := newExportService(env)

	artifact, err := svc.CreateExport(context.Background(), 1, &ExportRequest{Format: "csv"})
	if err != nil {
		t.Fatalf("CreateExport: %v", err)
	}
	text := string(readAll(t, svc, artifact.ID))
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "Total Score") || !strings.Contains(lines[0], "q1") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(text, "alice") || !strings.Contains(text, "bob") {
		t.Fatal("respondents missing from export")
	}
}

func TestCreateExportValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	svc := newExportService(env)
	ctx := context.Background()

	from := time.Now()
	to := from.Add(-time.Hour)
	if _, err := svc.CreateExport(ctx, 1, &ExportRequest{Format: "csv", From: &from, To: &to}); !util.IsValidation(err) {
		t.Fatalf("inverted range: expected validation error, got %v", err)
	}
	if _, err := svc.CreateExport(ctx, 1, &ExportRequest{Format: "csv", TimeZone: "Mars/Olympus"}); !util.IsValidation(err) {
		t.Fatalf("bad time zone: expected validation error, got %v", err)
	}
	if _, err := svc.CreateExport(ctx, 99, &ExportRequest{Format: "csv"}); !util.IsNotFound(err) {
		t.Fatalf("missing form: expected not found, got %v", err)
	}
}

func TestExportExpiryAndPurge(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	svc := newExportService(env)
	ctx := context.Background()

	artifact, err := svc.CreateExport(ctx, 1, &ExportRequest{Format: "csv"})
	if err != nil {
		t.Fatalf("CreateExport: %v", err)
	}
	if _, err := svc.GetExport(ctx, artifact.ID); err != nil {
		t.Fatalf("GetExport before expiry: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.GetExport(ctx, artifact.ID); !util.IsNotFound(err) {
		t.Fatalf("expected expired export to be not found, got %v", err)
	}

	n, err := svc.PurgeExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired = %d, %v", n, err)
	}
	if len(env.storage.objects) != 0 {
		t.Fatal("export file should be removed from storage")
	}
	if _, err := env.exports.FindByID(ctx, artifact.ID); !util.IsNotFound(err) {
		t.Fatalf("expected purged row to be gone, got %v", err)
	}
}

func TestSetTTL(t *testing.T) {
	env := newTestEnv(t)
	svc := newExportService(env)
	svc.SetTTL(10 * time.Minute)
	if svc.TTL() != 10*time.Minute {
		t.Fatalf("ttl = %s", svc.TTL())
	}
	svc.SetTTL(0)
	if svc.TTL() != 30*time.Minute {
		t.Fatalf("ttl fallback = %s", svc.TTL())
	}
}
