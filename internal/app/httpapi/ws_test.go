package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/veltasoft/worksuite/internal/app/services/collab"
)

func dialCollab(t *testing.T, server *httptest.Server, docID, token string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(server.URL, "http", "ws", 1) + "/api/v1/documents/" + docID + "/collab"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", url, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readCollab(t *testing.T, conn *websocket.Conn) collab.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg collab.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func TestCollabSocket(t *testing.T) {
	api := newTestAPI(t, Options{})
	server := httptest.NewServer(api.handler)
	defer server.Close()

	token := api.token(t, "alice", "")
	rec := api.do(t, http.MethodPost, "/api/v1/documents", token, map[string]string{
		"title":   "shared",
		"content": "draft",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create document: %d %s", rec.Code, rec.Body.String())
	}
	var doc struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &doc)

	alice := dialCollab(t, server, doc.ID, token)
	snap := readCollab(t, alice)
	if snap.Type != "snapshot" || snap.Content != "draft" || snap.Revision != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	bob := dialCollab(t, server, doc.ID, api.token(t, "bob", ""))
	if snap = readCollab(t, bob); snap.Type != "snapshot" || snap.Content != "draft" {
		t.Fatalf("bob snapshot %+v", snap)
	}
	if join := readCollab(t, alice); join.Type != "join" || join.UserID != "bob" {
		t.Fatalf("join broadcast %+v", join)
	}

	// Bob prepends text at revision 0; he gets an ack, alice the op.
	var op collab.Op
	op.Insert("hi ").Retain(5)
	if err := bob.WriteJSON(collab.Message{Type: "op", Revision: 0, Ops: &op}); err != nil {
		t.Fatalf("write op: %v", err)
	}
	if ack := readCollab(t, bob); ack.Type != "ack" || ack.Revision != 1 {
		t.Fatalf("ack %+v", ack)
	}
	applied := readCollab(t, alice)
	if applied.Type != "op" || applied.UserID != "bob" || applied.Revision != 1 || applied.Ops == nil {
		t.Fatalf("op broadcast %+v", applied)
	}

	if err := bob.WriteJSON(collab.Message{Type: "cursor", Cursor: 3}); err != nil {
		t.Fatalf("write cursor: %v", err)
	}
	if cur := readCollab(t, alice); cur.Type != "cursor" || cur.UserID != "bob" || cur.Cursor != 3 {
		t.Fatalf("cursor broadcast %+v", cur)
	}

	_ = bob.Close()
	if left := readCollab(t, alice); left.Type != "leave" || left.UserID != "bob" {
		t.Fatalf("leave broadcast %+v", left)
	}
}

func TestCollabSocketRejectsMalformedOp(t *testing.T) {
	api := newTestAPI(t, Options{})
	server := httptest.NewServer(api.handler)
	defer server.Close()

	token := api.token(t, "alice", "")
	rec := api.do(t, http.MethodPost, "/api/v1/documents", token, map[string]string{"title": "solo", "content": "abc"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create document: %d", rec.Code)
	}
	var doc struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &doc)

	conn := dialCollab(t, server, doc.ID, token)
	if snap := readCollab(t, conn); snap.Type != "snapshot" {
		t.Fatalf("snapshot %+v", snap)
	}

	if err := conn.WriteJSON(collab.Message{Type: "op", Revision: 0}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readCollab(t, conn); msg.Type != "error" {
		t.Fatalf("expected error, got %+v", msg)
	}
}
