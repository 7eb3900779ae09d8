package storage

import (
	"context"
	"regexp"
	"strings"
	"testing"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestObjectKeyLayout(t *testing.T) {
	key := objectKey("/tmp/upload-12345.PNG")

	pattern := regexp.MustCompile(`^uploads/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.png$`)
	if !pattern.MatchString(key) {
		t.Fatalf("unexpected key layout: %q", key)
	}
}

func TestObjectKeyIsUnique(t *testing.T) {
	a := objectKey("avatar.png")
	b := objectKey("avatar.png")
	if a == b {
		t.Fatal("two keys for the same file name collide")
	}
}

func TestObjectKeyNoExtension(t *testing.T) {
	key := objectKey("/tmp/upload-raw")
	if strings.Contains(key, ".") {
		t.Fatalf("expected no extension in key, got %q", key)
	}
}

func TestContentTypeFor(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"avatar.png", "image/png"},
		{"cover.jpg", "image/jpeg"},
		{"cover.jpeg", "image/jpeg"},
		{"anim.gif", "image/gif"},
		{"unknown.zzz", "application/octet-stream"},
		{"no-extension", "application/octet-stream"},
	}

	for _, tc := range cases {
		got := contentTypeFor(tc.path)
		// mime.TypeByExtension may append a charset for some types.
		if !strings.HasPrefix(got, tc.want) {
			t.Fatalf("contentTypeFor(%q) = %q, want prefix %q", tc.path, got, tc.want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	withBase := &S3{config: Config{
		Bucket:        "media",
		Region:        "us-east-1",
		PublicBaseURL: "https://cdn.example.com/",
	}}
	if got := withBase.publicURL("uploads/a/b"); got != "https://cdn.example.com/uploads/a/b" {
		t.Fatalf("publicURL = %q", got)
	}

	plain := &S3{config: Config{Bucket: "media", Region: "eu-west-1"}}
	want := "https://media.s3.eu-west-1.amazonaws.com/uploads/a/b"
	if got := plain.publicURL("uploads/a/b"); got != want {
		t.Fatalf("publicURL = %q, want %q", got, want)
	}
}
