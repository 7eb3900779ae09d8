package accounts

import (
	"context"
	"errors"
	"testing"
)

func TestUpdateProfileFullNameOnly(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := &mockUserProvider{}
	svc := newTestService(t, rdb, up, &fakeFileStorage{})

	user := registerTestUser(t, svc, up, "alice", "alice@example.com", "Secret1!")

	pub, err := svc.UpdateProfile(context.Background(), user.UserID, "Alice P. Liddell", "")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if pub.FullName != "Alice P. Liddell" {
		t.Fatalf("FullName = %q", pub.FullName)
	}
	// The untouched field keeps its value.
	if pub.Email != "alice@example.com" {
		t.Fatalf("Email changed to %q", pub.Email)
	}
}

func TestUpdateProfileEmailNormalized(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := &mockUserProvider{}
	svc := newTestService(t, rdb, up, &fakeFileStorage{})

	user := registerTestUser(t, svc, up, "alice", "alice@example.com", "Secret1!")

	pub, err := svc.UpdateProfile(context.Background(), user.UserID, "", "  NEW@Example.com ")
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if pub.Email != "new@example.com" {
		t.Fatalf("Email = %q, want normalized", pub.Email)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := &mockUserProvider{}
	svc := newTestService(t, rdb, up, &fakeFileStorage{})
	ctx := context.Background()

	user := registerTestUser(t, svc, up, "alice", "alice@example.com", "Secret1!")

	if _, err := svc.UpdateProfile(ctx, "", "Name", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing userID = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateProfile(ctx, user.UserID, "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("no fields = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateProfile(ctx, user.UserID, "   ", "  "); !errors.Is(err, ErrValidation) {
		t.Fatalf("whitespace fields = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateProfile(ctx, "missing-id", "Name", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := &mockUserProvider{}
	svc := newTestService(t, rdb, up, &fakeFileStorage{})
	ctx := context.Background()

	registerTestUser(t, svc, up, "alice", "alice@example.com", "Secret1!")
	bob := registerTestUser(t, svc, up, "bob", "bob@example.com", "Secret1!")

	if _, err := svc.UpdateProfile(ctx, bob.UserID, "", "alice@example.com"); !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("email conflict = %v, want ErrDuplicateUser", err)
	}
}

func TestUpdateAvatar(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := &mockUserProvider{}
	fs := &fakeFileStorage{}
	svc := newTestService(t, rdb, up, fs)

	user := registerTestUser(t, svc, up, "alice", "alice@example.com", "Secret1!")
	before, _ := up.user(user.UserID)

	pub, err := svc.UpdateAvatar(context.Background(), user.UserID, "new-avatar.png")
	if err != nil {
		t.Fatalf("UpdateAvatar failed: %v", err)
	}
	if pub.AvatarURL == before.AvatarURL {
		t.Fatal("avatar URL unchanged")
	}
	if pub.CoverImageURL != before.CoverImageURL {
		t.Fatal("cover image must not change on an avatar update")
	}
}

func TestUpdateCoverImage(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := &mockUserProvider{}
	svc := newTestService(t, rdb, up, &fakeFileStorage{})

	user := registerTestUser(t, svc, up, "alice", "alice@example.com", "Secret1!")

	pub, err := svc.UpdateCoverImage(context.Background(), user.UserID, "cover.jpg")
	if err != nil {
		t.Fatalf("UpdateCoverImage failed: %v", err)
	}
	if pub.CoverImageURL == "" {
		t.Fatal("cover image URL not set")
	}
}

func TestUpdateImageValidationAndFailure(t *testing.T) {
	_, rdb := newTestRedis(t)
	up := &mockUserProvider{}
	fs := &fakeFileStorage{}
	svc := newTestService(t, rdb, up, fs)
	ctx := context.Background()

	user := registerTestUser(t, svc, up, "alice", "alice@example.com", "Secret1!")

	if _, err := svc.UpdateAvatar(ctx, user.UserID, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing path = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateAvatar(ctx, "", "a.png"); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing userID = %v, want ErrValidation", err)
	}

	fs.mu.Lock()
	fs.err = errors.New("bucket unreachable")
	fs.mu.Unlock()

	if _, err := svc.UpdateAvatar(ctx, user.UserID, "a.png"); !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("storage failure = %v, want ErrUploadFailed", err)
	}
	if up.updateProfileCalls != 0 {
		t.Fatal("profile must not be updated when the upload fails")
	}

	snap := svc.MetricsSnapshot()
	if got := snap.Counters[MetricUploadFailure]; got != 1 {
		t.Fatalf("upload_failure = %d, want 1", got)
	}
}
