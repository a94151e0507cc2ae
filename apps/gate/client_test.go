package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/student"
)

func Test_apiClient_scanRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/users/login":
			json.NewEncoder(w).Encode(loginResponse{Token: "jwt-token"})
		case "/v1/attendance/verify":
			if got := r.Header.Get("Authorization"); got != "Bearer jwt-token" {
				t.Errorf("Authorization = %q; want bearer token", got)
			}
			var sr attendance.ScanRequest
			json.NewDecoder(r.Body).Decode(&sr)
			json.NewEncoder(w).Encode(attendance.Verification{
				Student: student.Student{StudentID: sr.StudentCode, FullName: "Asha Rao"},
				IsLate:  true,
			})
		case "/v1/attendance/exit":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"student_code": ["no open entry to close"]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	client := newAPIClient(srv.URL)

	if err := client.Login(ctx, "gatekeeper", "S3cret!pass"); err != nil {
		t.Fatalf("Login(): %v", err)
	}
	if client.token != "jwt-token" {
		t.Errorf("token = %q; want jwt-token", client.token)
	}

	v, err := client.Verify(ctx, "stu001")
	if err != nil {
		t.Fatalf("Verify(): %v", err)
	}
	if v.Student.StudentID != "stu001" || !v.IsLate {
		t.Errorf("verification = %+v; want stu001, late", v)
	}

	// API errors come back readable, field errors included
	_, err = client.RecordExit(ctx, "stu001")
	if err == nil {
		t.Fatal("RecordExit() should fail")
	}
	if !strings.Contains(err.Error(), "no open entry") {
		t.Errorf("err = %v; want the API error surfaced", err)
	}
}

func Test_wedge_detect(t *testing.T) {
	w := newWedge(strings.NewReader("  stu001  \n\nstu002\n"))

	ctx := context.Background()
	want := []string{"stu001", "stu002"}
	for _, code := range want {
		got := waitDetect(t, w, ctx)
		if got != code {
			t.Errorf("Detect() = %q; want %q", got, code)
		}
	}
}

// waitDetect polls until the reader goroutine has fed the next code.
func waitDetect(t *testing.T, w *wedge, ctx context.Context) string {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		code, err := w.Detect(ctx)
		if err != nil {
			t.Fatalf("Detect(): %v", err)
		}
		if code != "" {
			return code
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("Detect() timed out")
	return ""
}
