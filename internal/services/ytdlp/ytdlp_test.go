package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"shortsdub/internal/job"
	"shortsdub/internal/services"
)

type fakeYTDLP struct {
	probeJSON   string
	downloadErr error
	writePart   bool
	calls       [][]string
}

func (f *fakeYTDLP) run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	if slices.Contains(args, "--dump-single-json") {
		return []byte(f.probeJSON), nil
	}
	output := args[slices.Index(args, "-o")+1]
	if f.writePart {
		_ = os.WriteFile(output+".part", []byte("partial"), 0o644)
	}
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return nil, os.WriteFile(output, []byte("mp4"), 0o644)
}

func newJob(t *testing.T) job.Context {
	t.Helper()
	jc, err := job.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return jc
}

func TestAcquireDownloadsSingleVideo(t *testing.T) {
	jc := newJob(t)
	fake := &fakeYTDLP{probeJSON: `{"_type":"video","title":"clip"}`}
	svc := NewService(Config{})
	svc.WithCommandRunner(fake.run)

	art, err := svc.Acquire(context.Background(), jc, "https://www.youtube.com/shorts/abc")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if art.Path != jc.OriginalPath() || art.Kind != job.KindVideo {
		t.Fatalf("unexpected artifact %+v", art)
	}
	if err := art.Verify(); err != nil {
		t.Fatal(err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected probe and download, got %d calls", len(fake.calls))
	}
	download := strings.Join(fake.calls[1], " ")
	for _, want := range []string{"-f best[ext=mp4]/best", "--merge-output-format mp4", "--no-playlist", "--no-mtime"} {
		if !strings.Contains(download, want) {
			t.Fatalf("expected %q in %q", want, download)
		}
	}
}

func TestAcquireRejectsPlaylist(t *testing.T) {
	jc := newJob(t)
	fake := &fakeYTDLP{probeJSON: `{"_type":"playlist","entries":[{"id":"a"},{"id":"b"}]}`}
	svc := NewService(Config{PlaylistPolicy: PlaylistReject})
	svc.WithCommandRunner(fake.run)

	_, err := svc.Acquire(context.Background(), jc, "https://www.youtube.com/playlist?list=x")
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "playlist of 2 items") {
		t.Fatalf("expected playlist rejection, got %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatal("download must not run for a rejected playlist")
	}
}

func TestAcquireFirstPolicySkipsProbe(t *testing.T) {
	jc := newJob(t)
	fake := &fakeYTDLP{}
	svc := NewService(Config{PlaylistPolicy: PlaylistFirst})
	svc.WithCommandRunner(fake.run)

	if _, err := svc.Acquire(context.Background(), jc, "https://www.youtube.com/playlist?list=x"); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(fake.calls) != 1 || !slices.Contains(fake.calls[0], "--playlist-items") {
		t.Fatalf("expected single download with playlist-items, got %v", fake.calls)
	}
}

func TestAcquireFailureLeavesNoFiles(t *testing.T) {
	jc := newJob(t)
	fake := &fakeYTDLP{
		probeJSON:   `{"_type":"video"}`,
		downloadErr: errors.New("yt-dlp: exit status 1: ERROR: Video unavailable. This video is not available in your country"),
		writePart:   true,
	}
	svc := NewService(Config{})
	svc.WithCommandRunner(fake.run)

	_, err := svc.Acquire(context.Background(), jc, "https://example.com/v")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if services.Details(err).Message != "content is geo-restricted" {
		t.Fatalf("unexpected message %q", services.Details(err).Message)
	}
	leftovers, _ := filepath.Glob(filepath.Join(jc.Dir, jc.ID+"*"))
	if len(leftovers) != 0 {
		t.Fatalf("expected no job files after failure, got %v", leftovers)
	}
}

func TestValidateURL(t *testing.T) {
	for _, bad := range []string{"", "   ", "ftp://x/y", "not a url", "https://"} {
		if _, err := ValidateURL(bad); err == nil {
			t.Errorf("ValidateURL(%q) accepted", bad)
		}
	}
	if got, err := ValidateURL(" https://youtu.be/x "); err != nil || got != "https://youtu.be/x" {
		t.Fatalf("ValidateURL = %q, %v", got, err)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"ERROR: Unsupported URL: https://x":            "unsupported url",
		"ERROR: Sign in to confirm your age":           "content requires authentication",
		"ERROR: Unable to download webpage: timed out": "url unreachable",
		"ERROR: something odd happened":                "download failed",
	}
	for input, want := range cases {
		if got := classify(errors.New(input)); got != want {
			t.Errorf("classify(%q) = %q, want %q", input, got, want)
		}
	}
}
