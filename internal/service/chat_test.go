package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/concordapp/concord-backend/internal/model"
	"gorm.io/gorm"
)

type fakeResolver struct {
	parent  ParentRef
	members map[string]Membership
}

func (r *fakeResolver) Resolve(_ context.Context, parent ParentRef, profileUID string) (*Membership, error) {
	if parent != r.parent {
		return nil, gorm.ErrRecordNotFound
	}
	m, ok := r.members[profileUID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &m, nil
}

// fakeStore reproduces the store contract in memory: guarded writes against
// tombstoned rows and created_at DESC, id ASC page ordering.
type fakeStore struct {
	nextID uint64
	rows   map[uint64]*MessageRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uint64]*MessageRecord)}
}

func (s *fakeStore) seed(parentID, memberID uint64, content string, createdAt time.Time) *MessageRecord {
	s.nextID++
	rec := &MessageRecord{
		ID:        s.nextID,
		ParentID:  parentID,
		MemberID:  memberID,
		Content:   content,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	s.rows[rec.ID] = rec
	return rec
}

func (s *fakeStore) Insert(_ context.Context, rec *MessageRecord) error {
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	s.rows[rec.ID] = &cp
	return nil
}

func (s *fakeStore) Find(_ context.Context, parentID, messageID uint64) (*MessageRecord, error) {
	rec, ok := s.rows[messageID]
	if !ok || rec.ParentID != parentID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) UpdateContent(_ context.Context, messageID uint64, content string) (*MessageRecord, error) {
	rec, ok := s.rows[messageID]
	if !ok || rec.Deleted {
		return nil, gorm.ErrRecordNotFound
	}
	rec.Content = content
	rec.UpdatedAt = time.Now()
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) SoftDelete(_ context.Context, messageID uint64, tombstone string) (*MessageRecord, error) {
	rec, ok := s.rows[messageID]
	if !ok || rec.Deleted {
		return nil, gorm.ErrRecordNotFound
	}
	rec.Content = tombstone
	rec.FileURL = ""
	rec.Deleted = true
	rec.UpdatedAt = time.Now()
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) ListPage(_ context.Context, parentID, afterID uint64, limit int) ([]MessageRecord, error) {
	var all []MessageRecord
	for _, rec := range s.rows {
		if rec.ParentID == parentID {
			all = append(all, *rec)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	start := 0
	if afterID != 0 {
		start = -1
		for i := range all {
			if all[i].ID == afterID {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return []MessageRecord{}, nil
		}
	}
	if start >= len(all) {
		return []MessageRecord{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

type published struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	events []published
}

func (p *fakePublisher) Publish(topic string, payload interface{}) {
	p.events = append(p.events, published{topic: topic, payload: payload})
}

type fakeUploader struct {
	url string
	err error
}

func (u *fakeUploader) Upload(context.Context, []byte, string) (string, error) {
	return u.url, u.err
}

const (
	testServerID  = uint64(1)
	testChannelID = uint64(7)
)

var channelParent = ParentRef{ID: testChannelID, ServerID: testServerID}

func newChannelFixture() (*chatService, *fakeStore, *fakePublisher) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := &chatService{
		resolver: &fakeResolver{
			parent: channelParent,
			members: map[string]Membership{
				"alice": {ID: 11, ProfileUID: "alice", Role: model.RoleGuest},
				"bob":   {ID: 12, ProfileUID: "bob", Role: model.RoleGuest},
				"mod":   {ID: 13, ProfileUID: "mod", Role: model.RoleModerator},
				"admin": {ID: 14, ProfileUID: "admin", Role: model.RoleAdmin},
			},
		},
		store:         st,
		pub:           pub,
		uploader:      &fakeUploader{url: "https://files.example/abc"},
		roleModerated: true,
	}
	return svc, st, pub
}

func TestCreateMessage(t *testing.T) {
	svc, st, pub := newChannelFixture()
	ctx := context.Background()

	msg, err := svc.Create(ctx, channelParent, "alice", "hello", nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if msg.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if msg.MemberID != 11 {
		t.Fatalf("owner membership = %d, want 11", msg.MemberID)
	}
	if msg.FileURL != "" {
		t.Fatalf("fileUrl = %q, want empty for no attachment", msg.FileURL)
	}
	if msg.Deleted {
		t.Fatal("new message must be live")
	}
	if _, ok := st.rows[msg.ID]; !ok {
		t.Fatal("message not persisted")
	}
	if len(pub.events) != 1 || pub.events[0].topic != TopicMessages(testChannelID) {
		t.Fatalf("events = %+v, want one on %s", pub.events, TopicMessages(testChannelID))
	}
}

func TestCreateMessageWithAttachment(t *testing.T) {
	svc, _, _ := newChannelFixture()

	msg, err := svc.Create(context.Background(), channelParent, "alice", "look", []byte{1, 2, 3}, "image/png")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if msg.FileURL != "https://files.example/abc" {
		t.Fatalf("fileUrl = %q", msg.FileURL)
	}
}

func TestCreateMessageRejections(t *testing.T) {
	tests := []struct {
		name    string
		parent  ParentRef
		caller  string
		content string
		wantErr error
	}{
		{"empty content", channelParent, "alice", "", ErrValidation},
		{"not a member", channelParent, "mallory", "hi", ErrNotFound},
		{"unknown channel", ParentRef{ID: 999, ServerID: testServerID}, "alice", "hi", ErrNotFound},
		{"wrong server", ParentRef{ID: testChannelID, ServerID: 999}, "alice", "hi", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st, pub := newChannelFixture()
			_, err := svc.Create(context.Background(), tt.parent, tt.caller, tt.content, nil, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(st.rows) != 0 {
				t.Fatal("nothing should be persisted")
			}
			if len(pub.events) != 0 {
				t.Fatal("nothing should be published")
			}
		})
	}
}

func TestCreateMessageUploadFailure(t *testing.T) {
	svc, st, pub := newChannelFixture()
	svc.uploader = &fakeUploader{err: errors.New("bucket unreachable")}

	_, err := svc.Create(context.Background(), channelParent, "alice", "hi", []byte{1}, "image/png")
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if len(st.rows) != 0 {
		t.Fatal("no partial message may persist after a failed upload")
	}
	if len(pub.events) != 0 {
		t.Fatal("no event may be published after a failed upload")
	}
}

func TestEditOwnerOnly(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		wantErr error
	}{
		{"owner", "alice", nil},
		{"other guest", "bob", ErrUnauthorized},
		{"moderator", "mod", ErrUnauthorized},
		{"admin", "admin", ErrUnauthorized},
		{"non-member", "mallory", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st, pub := newChannelFixture()
			seeded := st.seed(testChannelID, 11, "original", time.Now())

			msg, err := svc.Edit(context.Background(), channelParent, seeded.ID, tt.caller, "edited")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if st.rows[seeded.ID].Content != "original" {
					t.Fatal("content must be unchanged")
				}
				return
			}
			if err != nil {
				t.Fatalf("edit: %v", err)
			}
			if msg.Content != "edited" {
				t.Fatalf("content = %q", msg.Content)
			}
			if len(pub.events) != 1 || pub.events[0].topic != TopicMessageUpdates(testChannelID) {
				t.Fatalf("events = %+v, want one on %s", pub.events, TopicMessageUpdates(testChannelID))
			}
		})
	}
}

func TestEditValidationAndMissing(t *testing.T) {
	svc, st, _ := newChannelFixture()
	seeded := st.seed(testChannelID, 11, "original", time.Now())

	if _, err := svc.Edit(context.Background(), channelParent, seeded.ID, "alice", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty content err = %v, want ErrValidation", err)
	}
	if _, err := svc.Edit(context.Background(), channelParent, 999, "alice", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing message err = %v, want ErrNotFound", err)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		caller  string
		wantErr error
	}{
		{"owner", "alice", nil},
		{"moderator", "mod", nil},
		{"admin", "admin", nil},
		{"other guest", "bob", ErrUnauthorized},
		{"non-member", "mallory", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st, pub := newChannelFixture()
			seeded := st.seed(testChannelID, 11, "doomed", time.Now())
			st.rows[seeded.ID].FileURL = "https://files.example/old"

			msg, err := svc.Delete(context.Background(), channelParent, seeded.ID, tt.caller)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("delete: %v", err)
			}
			if !msg.Deleted {
				t.Fatal("deleted flag must be set")
			}
			if msg.Content != TombstoneContent {
				t.Fatalf("content = %q, want tombstone", msg.Content)
			}
			if msg.FileURL != "" {
				t.Fatalf("fileUrl = %q, want cleared", msg.FileURL)
			}
			if msg.ID != seeded.ID {
				t.Fatal("delete must keep the row id")
			}
			if len(pub.events) != 1 || pub.events[0].topic != TopicMessageUpdates(testChannelID) {
				t.Fatalf("events = %+v", pub.events)
			}
		})
	}
}

func TestDeletedMessageIsTerminal(t *testing.T) {
	svc, st, _ := newChannelFixture()
	seeded := st.seed(testChannelID, 11, "doomed", time.Now())

	if _, err := svc.Delete(context.Background(), channelParent, seeded.ID, "alice"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if _, err := svc.Delete(context.Background(), channelParent, seeded.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Edit(context.Background(), channelParent, seeded.ID, "alice", "resurrect"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("edit after delete err = %v, want ErrNotFound", err)
	}
	if st.rows[seeded.ID].Content != TombstoneContent {
		t.Fatal("tombstone must be immutable")
	}
}

func TestDirectDeleteIsOwnerOnly(t *testing.T) {
	parent := ParentRef{ID: 42}
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := &chatService{
		resolver: &fakeResolver{
			parent: parent,
			members: map[string]Membership{
				// Roles carry over from the server context but must not grant
				// anything inside a conversation.
				"alice": {ID: 21, ProfileUID: "alice", Role: model.RoleGuest},
				"carol": {ID: 22, ProfileUID: "carol", Role: model.RoleAdmin},
			},
		},
		store:         st,
		pub:           pub,
		roleModerated: false,
	}
	seeded := st.seed(parent.ID, 21, "private", time.Now())

	if _, err := svc.Delete(context.Background(), parent, seeded.ID, "carol"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("admin-role non-owner err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Delete(context.Background(), parent, seeded.ID, "alice"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}
