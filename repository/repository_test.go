package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	database "buzznest/db"
	"buzznest/model"
	"buzznest/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := database.NewConnection(database.Config{Driver: "sqlite3"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := database.Migrate(context.Background(), conn.DB); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn.DB
}

func createUser(t *testing.T, repo repository.UserRepository, username, email string) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createPost(t *testing.T, repo repository.PostRepository, owner uuid.UUID, content string, at time.Time) *models.Post {
	t.Helper()

	post := &models.Post{
		ID:        uuid.New(),
		UserID:    owner,
		Content:   content,
		CreatedAt: at,
		UpdatedAt: at,
	}
	post.SetMedia(models.MediaImage, "http://media.test/"+post.ID.String()+".png")
	if err := repo.Create(context.Background(), post); err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return post
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)

	createUser(t, users, "alice", "alice@x.com")

	dup := &models.User{
		ID:           uuid.New(),
		Username:     "other",
		Email:        "alice@x.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	err := users.CreateUser(context.Background(), dup)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)

	_, err := users.GetUserByEmail(context.Background(), "nobody@x.com")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchUsers_CaseInsensitiveSubstring(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	createUser(t, users, "Bobby123", "robert@x.com")
	createUser(t, users, "carol", "bob@example.com")
	createUser(t, users, "dave", "dave@x.com")
	createUser(t, users, "under_score", "u@x.com")

	got, err := users.Search(ctx, "bob")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(got), got)
	}
	if got[0].Username != "Bobby123" || got[1].Username != "carol" {
		t.Errorf("unexpected order: %+v", got)
	}

	got, err = users.Search(ctx, "BOB")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected upper-case query to match 2 users, got %d", len(got))
	}

	// "_" must match literally, not as a single-character wildcard.
	got, err = users.Search(ctx, "d_v")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches for escaped wildcard, got %+v", got)
	}

	got, err = users.Search(ctx, "r_s")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].Username != "under_score" {
		t.Errorf("expected literal underscore match, got %+v", got)
	}

	got, err = users.Search(ctx, "zzz")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSearchUsers_UnicodeCaseFolding(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	createUser(t, users, "Élodie", "elodie@x.com")
	createUser(t, users, "Straße", "strasse@x.com")

	for _, query := range []string{"élo", "ÉLO", "STRASSE", "traße"} {
		got, err := users.Search(ctx, query)
		if err != nil {
			t.Fatalf("search %q failed: %v", query, err)
		}
		if len(got) != 1 {
			t.Errorf("query %q: expected 1 match, got %+v", query, got)
		}
	}
}

func TestToggleLike_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	bob := createUser(t, users, "bob", "bob@x.com")
	post := createPost(t, posts, alice.ID, "hello", time.Now().UTC())

	updated, liked, err := posts.ToggleLike(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !liked || updated.LikesCount != 1 {
		t.Fatalf("expected liked with count 1, got liked=%v count=%d", liked, updated.LikesCount)
	}

	if _, _, err := posts.ToggleLike(ctx, post.ID, alice.ID); err != nil {
		t.Fatalf("owner toggle failed: %v", err)
	}

	updated, liked, err = posts.ToggleLike(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if liked || updated.LikesCount != 1 {
		t.Fatalf("expected unliked with count 1, got liked=%v count=%d", liked, updated.LikesCount)
	}

	var rows int64
	if err := db.Get(&rows, db.Rebind(`SELECT COUNT(*) FROM post_likes WHERE post_id = ?`), post.ID); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if rows != updated.LikesCount {
		t.Errorf("likes_count %d does not match %d like rows", updated.LikesCount, rows)
	}
}

func TestToggleLike_MissingPost(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)

	alice := createUser(t, users, "alice", "alice@x.com")

	_, _, err := posts.ToggleLike(context.Background(), uuid.New(), alice.ID)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePost_RemovesLikesAndComments(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	bob := createUser(t, users, "bob", "bob@x.com")
	post := createPost(t, posts, alice.ID, "hello", time.Now().UTC())

	if _, _, err := posts.ToggleLike(ctx, post.ID, bob.ID); err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	err := comments.Create(ctx, &models.Comment{
		ID:        uuid.New(),
		PostID:    post.ID,
		UserID:    bob.ID,
		Content:   "nice",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	deleted, err := posts.Delete(ctx, post.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.ID != post.ID || deleted.LikesCount != 1 {
		t.Errorf("expected deleted row with one like, got %+v", deleted)
	}

	for _, table := range []string{"post_likes", "comments"} {
		var n int
		if err := db.Get(&n, db.Rebind(`SELECT COUNT(*) FROM `+table+` WHERE post_id = ?`), post.ID); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("expected no %s rows left, got %d", table, n)
		}
	}

	if _, err := posts.GetByID(ctx, post.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected post to be gone, got %v", err)
	}

	if _, err := posts.Delete(ctx, post.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListFeed_OrderAuthorsAndComments(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	bob := createUser(t, users, "bob", "bob@x.com")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	older := createPost(t, posts, alice.ID, "older", base)
	newer := createPost(t, posts, bob.ID, "newer", base.Add(time.Minute))

	for i, content := range []string{"first", "second"} {
		err := comments.Create(ctx, &models.Comment{
			ID:        uuid.New(),
			PostID:    older.ID,
			UserID:    bob.ID,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i+1) * time.Second),
		})
		if err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	feed, next, err := posts.ListFeed(ctx, nil, models.Page{})
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if next != "" {
		t.Errorf("expected no cursor for unbounded feed, got %q", next)
	}
	if len(feed) != 2 || feed[0].ID != newer.ID || feed[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", feed)
	}
	if feed[0].Author.Username != "bob" || feed[1].Author.Email != "alice@x.com" {
		t.Errorf("unexpected authors: %+v / %+v", feed[0].Author, feed[1].Author)
	}
	if len(feed[0].Comments) != 0 || feed[0].Comments == nil {
		t.Errorf("expected empty comment list on newer post, got %#v", feed[0].Comments)
	}
	if len(feed[1].Comments) != 2 || feed[1].Comments[0].Content != "first" {
		t.Errorf("expected comments oldest first, got %+v", feed[1].Comments)
	}
	if feed[1].Comments[0].Author.Username != "bob" {
		t.Errorf("expected comment author bob, got %+v", feed[1].Comments[0].Author)
	}

	own, _, err := posts.ListFeed(ctx, &alice.ID, models.Page{})
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 1 || own[0].ID != older.ID {
		t.Errorf("expected only alice's post, got %+v", own)
	}
}

func TestListFeed_KeysetPaging(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	var want []uuid.UUID
	for i := 0; i < 5; i++ {
		p := createPost(t, posts, alice.ID, "post", base.Add(time.Duration(i)*time.Second))
		want = append([]uuid.UUID{p.ID}, want...)
	}

	var got []uuid.UUID
	cursor := ""
	for pages := 0; ; pages++ {
		if pages > 5 {
			t.Fatal("paging did not terminate")
		}
		page, next, err := posts.ListFeed(ctx, nil, models.Page{Limit: 2, Cursor: cursor})
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		for _, p := range page {
			got = append(got, p.ID)
		}
		if next == "" {
			break
		}
		cursor = next
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d posts across pages, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	if _, _, err := posts.ListFeed(ctx, nil, models.Page{Limit: 2, Cursor: "%%%"}); !errors.Is(err, repository.ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestUpdateContent(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	post := createPost(t, posts, alice.ID, "before", time.Now().UTC())

	later := post.UpdatedAt.Add(time.Minute)
	updated, err := posts.UpdateContent(ctx, post.ID, "after", later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "after" || !updated.UpdatedAt.Equal(later) {
		t.Errorf("unexpected post after update: %+v", updated)
	}
	if updated.ImageURL == nil || *updated.ImageURL != *post.ImageURL {
		t.Errorf("media url must be untouched, got %v", updated.ImageURL)
	}

	if _, err := posts.UpdateContent(ctx, uuid.New(), "x", later); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCountByUser(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	bob := createUser(t, users, "bob", "bob@x.com")
	createPost(t, posts, alice.ID, "a", time.Now().UTC())
	createPost(t, posts, alice.ID, "b", time.Now().UTC())

	if n, err := posts.CountByUser(ctx, alice.ID); err != nil || n != 2 {
		t.Errorf("expected 2 posts for alice, got %d (%v)", n, err)
	}
	if n, err := posts.CountByUser(ctx, bob.ID); err != nil || n != 0 {
		t.Errorf("expected 0 posts for bob, got %d (%v)", n, err)
	}
}

func TestToggleFollow(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	follows := repository.NewFollowRepository(db, nil, 0)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	bob := createUser(t, users, "bob", "bob@x.com")

	following, err := follows.ToggleFollow(ctx, alice.ID, bob.ID)
	if err != nil || !following {
		t.Fatalf("expected follow, got %v (%v)", following, err)
	}

	counts, err := follows.GetFollowCounts(ctx, bob.ID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.FollowersCount != 1 || counts.FollowingCount != 0 {
		t.Errorf("unexpected counts for bob: %+v", counts)
	}

	counts, err = follows.GetFollowCounts(ctx, alice.ID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.FollowersCount != 0 || counts.FollowingCount != 1 {
		t.Errorf("unexpected counts for alice: %+v", counts)
	}

	following, err = follows.ToggleFollow(ctx, alice.ID, bob.ID)
	if err != nil || following {
		t.Fatalf("expected unfollow, got %v (%v)", following, err)
	}
	counts, err = follows.GetFollowCounts(ctx, bob.ID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.FollowersCount != 0 {
		t.Error("edge should be gone after second toggle")
	}

	if _, err := follows.ToggleFollow(ctx, alice.ID, uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown target, got %v", err)
	}
	if _, err := follows.ToggleFollow(ctx, alice.ID, alice.ID); err == nil {
		t.Error("expected self-follow to fail")
	}
}

func TestListComments_Ordered(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db, nil, 0)
	comments := repository.NewCommentRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "alice@x.com")
	post := createPost(t, posts, alice.ID, "hello", time.Now().UTC())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, content := range []string{"c", "a", "b"} {
		err := comments.Create(ctx, &models.Comment{
			ID:        uuid.New(),
			PostID:    post.ID,
			UserID:    alice.ID,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	list, err := comments.ListByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Content != "c" || list[2].Content != "b" {
		t.Errorf("expected creation order, got %+v", list)
	}

	empty, err := comments.ListByPost(ctx, uuid.New())
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty list, got %#v (%v)", empty, err)
	}
}
