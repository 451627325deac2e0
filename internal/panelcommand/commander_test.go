package panelcommand_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/firasghr/spc2mqtt/internal/panelclient"
	"github.com/firasghr/spc2mqtt/internal/panelcommand"
)

func TestCommander_Secteur(t *testing.T) {
	var gotPage, gotID, gotAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		r.ParseForm()
		gotID = r.PostForm.Get("id")
		gotAction = r.PostForm.Get("action")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, err := panelclient.New(filepath.Join(t.TempDir(), "cookies.jar"))
	if err != nil {
		t.Fatalf("panelclient.New: %v", err)
	}
	c := panelcommand.New(client, srv.URL)

	if err := c.Secteur(context.Background(), "sid123", "2", "MES"); err != nil {
		t.Fatalf("Secteur: %v", err)
	}
	if gotPage != "spc_home" || gotID != "2" || gotAction != "MES" {
		t.Errorf("got page=%q id=%q action=%q", gotPage, gotID, gotAction)
	}
}

func TestCommander_PropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := panelclient.New(filepath.Join(t.TempDir(), "cookies.jar"))
	if err != nil {
		t.Fatalf("panelclient.New: %v", err)
	}
	c := panelcommand.New(client, srv.URL)

	if err := c.Door(context.Background(), "sid", "5", "unlock"); err == nil {
		t.Error("expected error for HTTP 503")
	}
}
