package mentorship

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"alumni-portal/internal/config"
	"alumni-portal/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeUsers is an in-memory Directory and AssignmentStore.
type fakeUsers struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*auth.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[bson.ObjectID]*auth.User)}
}

func (f *fakeUsers) addStudent() bson.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := bson.NewObjectID()
	f.users[id] = &auth.User{ID: id, Email: id.Hex() + "@mgmcen.ac.in", Role: auth.RoleStudent,
		Student: &auth.StudentProfile{MentorshipStatus: auth.MentorshipAvailable, Skills: []string{}}}
	return id
}

func (f *fakeUsers) addAlumni(approved bool) bson.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := bson.NewObjectID()
	f.users[id] = &auth.User{ID: id, Email: id.Hex() + "@x.com", Role: auth.RoleAlumni,
		Alumni: &auth.AlumniProfile{IsApproved: approved, AssignedStudents: []bson.ObjectID{}}}
	return id
}

func (f *fakeUsers) FindByID(_ context.Context, id bson.ObjectID) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*auth.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) filter(keep func(*auth.User) bool) []*auth.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*auth.User
	for _, u := range f.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

func (f *fakeUsers) ListStudentsByStatus(_ context.Context, status auth.MentorshipStatus) ([]*auth.User, error) {
	return f.filter(func(u *auth.User) bool {
		return u.Role == auth.RoleStudent && u.Student.MentorshipStatus == status
	}), nil
}

func (f *fakeUsers) ListMentees(_ context.Context, alumniID bson.ObjectID) ([]*auth.User, error) {
	return f.filter(func(u *auth.User) bool {
		return u.Role == auth.RoleStudent && u.Student.AssignedAlumni != nil && *u.Student.AssignedAlumni == alumniID
	}), nil
}

func (f *fakeUsers) ListActiveMentors(_ context.Context) ([]*auth.User, error) {
	return f.filter(func(u *auth.User) bool {
		return u.Role == auth.RoleAlumni && len(u.Alumni.AssignedStudents) > 0
	}), nil
}

func (f *fakeUsers) Assign(_ context.Context, alumniID, studentID bson.ObjectID, capacity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.users[studentID]
	if !ok || st.Role != auth.RoleStudent {
		return ErrStudentNotFound
	}
	al, ok := f.users[alumniID]
	if !ok || al.Role != auth.RoleAlumni {
		return ErrMentorNotFound
	}
	if !al.Alumni.IsApproved {
		return ErrMentorNotApproved
	}
	if st.Student.AssignedAlumni != nil {
		if *st.Student.AssignedAlumni == alumniID {
			return ErrAlreadyAssigned
		}
		return ErrStudentTaken
	}
	if len(al.Alumni.AssignedStudents) >= capacity {
		return ErrMentorFull
	}
	aid := alumniID
	st.Student.AssignedAlumni = &aid
	st.Student.MentorshipStatus = auth.MentorshipMentored
	al.Alumni.AssignedStudents = append(al.Alumni.AssignedStudents, studentID)
	al.Alumni.CurrentStudents++
	return nil
}

func (f *fakeUsers) Unassign(_ context.Context, alumniID, studentID bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	al, ok := f.users[alumniID]
	st, ok2 := f.users[studentID]
	if !ok || !ok2 || al.Alumni == nil || st.Student == nil {
		return ErrNotAssigned
	}
	idx := -1
	for i, id := range al.Alumni.AssignedStudents {
		if id == studentID {
			idx = i
		}
	}
	if idx < 0 {
		return ErrNotAssigned
	}
	al.Alumni.AssignedStudents = append(al.Alumni.AssignedStudents[:idx], al.Alumni.AssignedStudents[idx+1:]...)
	al.Alumni.CurrentStudents--
	st.Student.AssignedAlumni = nil
	st.Student.MentorshipStatus = auth.MentorshipAvailable
	return nil
}

// fakeMessages is an in-memory MessagesRepo.
type fakeMessages struct {
	mu   sync.Mutex
	msgs []*Message
}

func (f *fakeMessages) Create(_ context.Context, m *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeMessages) ListByPair(_ context.Context, alumniID, studentID bson.ObjectID) ([]*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*Message{}
	for _, m := range f.msgs {
		if m.AlumniID == alumniID && m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) FindByID(_ context.Context, id bson.ObjectID) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, ErrMessageNotFound
}

func (f *fakeMessages) FindByFileID(_ context.Context, fileID bson.ObjectID) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.File != nil && m.File.ID == fileID {
			return m, nil
		}
	}
	return nil, ErrMessageNotFound
}

func (f *fakeMessages) AddReaction(_ context.Context, id bson.ObjectID, r Reaction) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			m.Reactions = append(m.Reactions, r)
			return m, nil
		}
	}
	return nil, ErrMessageNotFound
}

func (f *fakeMessages) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.msgs {
		if m.ID == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return nil
		}
	}
	return ErrMessageNotFound
}

type fakeBlob struct {
	Name        string
	ContentType string
	data        []byte
}

// fakeBlobs is an in-memory BlobStore.
type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[bson.ObjectID]*fakeBlob
}

func (f *fakeBlobs) Upload(_ context.Context, up FileUpload) (bson.ObjectID, int64, error) {
	data, err := io.ReadAll(up.Body)
	if err != nil {
		return bson.ObjectID{}, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blobs == nil {
		f.blobs = make(map[bson.ObjectID]*fakeBlob)
	}
	id := bson.NewObjectID()
	f.blobs[id] = &fakeBlob{Name: up.Name, ContentType: up.ContentType, data: data}
	return id, int64(len(data)), nil
}

func (f *fakeBlobs) Open(_ context.Context, id bson.ObjectID) (*Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	return &Blob{
		Name:        b.Name,
		ContentType: b.ContentType,
		Size:        int64(len(b.data)),
		Body:        io.NopCloser(bytes.NewReader(bytes.Clone(b.data))),
	}, nil
}

func (f *fakeBlobs) Delete(_ context.Context, id bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[id]; !ok {
		return ErrFileNotFound
	}
	delete(f.blobs, id)
	return nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

// fakeBus records broadcast events.
type fakeBus struct {
	mu     sync.Mutex
	events []MessageEvent
}

func (f *fakeBus) Broadcast(_ context.Context, ev MessageEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeBus) types() []EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EventType, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc   *Service
	users *fakeUsers
	msgs  *fakeMessages
	blobs *fakeBlobs
	bus   *fakeBus
}

func newFixture() *fixture {
	f := &fixture{users: newFakeUsers(), msgs: &fakeMessages{}, blobs: &fakeBlobs{}, bus: &fakeBus{}}
	cfg := config.Config{MentorCapacity: 3, MaxAttachmentMB: 1}
	f.svc = NewService(f.users, f.users, f.msgs, f.blobs, f.bus, cfg, silentLogger)
	return f
}
