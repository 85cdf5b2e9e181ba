package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/repository/contract"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/pkg/events"

	"github.com/google/uuid"
)

// memStore is an in-memory backing for the repository contracts. It reads
// the same specifications the gorm repositories apply.
type memStore struct {
	mu            sync.Mutex
	users         []*entity.User
	institutions  []*entity.Institution
	documents     []*entity.InstitutionDocument
	verifications []*entity.Verification
	audit         []*entity.AuditEvent
	requests      []*entity.VerificationRequest
	passwords     map[uuid.UUID]string
	sequences     map[int]int
	commits       int
}

func newMemStore() *memStore {
	return &memStore{passwords: map[uuid.UUID]string{}, sequences: map[int]int{}}
}

func (m *memStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{store: m}
}

var _ unitofwork.RepositoryFactory = (*memStore)(nil)

type memUoW struct {
	store  *memStore
	active bool
}

func (u *memUoW) Begin(ctx context.Context) error {
	if u.active {
		return unitofwork.ErrTxActive
	}
	u.active = true
	return nil
}

func (u *memUoW) Commit() error {
	if !u.active {
		return unitofwork.ErrTxInactive
	}
	u.active = false
	u.store.mu.Lock()
	u.store.commits++
	u.store.mu.Unlock()
	return nil
}

func (u *memUoW) Rollback() error {
	if !u.active {
		return unitofwork.ErrTxInactive
	}
	u.active = false
	return nil
}

func (u *memUoW) UserRepository() contract.UserRepository { return memUsers{u.store} }
func (u *memUoW) InstitutionRepository() contract.InstitutionRepository {
	return memInstitutions{u.store}
}
func (u *memUoW) VerificationRepository() contract.VerificationRepository {
	return memVerifications{u.store}
}

// query filters items with match and applies ordering and pagination.
func query[T any](items []*T, specs []specification.Specification, match func(*T, specification.Specification) bool, at func(*T) time.Time) []*T {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		ok := true
		for _, s := range specs {
			switch s.(type) {
			case specification.OrderBy, specification.Pagination:
				continue
			}
			if !match(it, s) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, it)
		}
	}
	for _, s := range specs {
		switch s := s.(type) {
		case specification.OrderBy:
			if at == nil {
				continue
			}
			sort.SliceStable(out, func(i, j int) bool {
				if s.Desc {
					return at(out[i]).After(at(out[j]))
				}
				return at(out[i]).Before(at(out[j]))
			})
		case specification.Pagination:
			if s.Offset >= len(out) {
				out = out[:0]
				continue
			}
			out = out[s.Offset:]
			if s.Limit > 0 && s.Limit < len(out) {
				out = out[:s.Limit]
			}
		}
	}
	return out
}

func first[T any](items []*T) *T {
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

func statusMatches(filter, status string) bool {
	return filter == "" || filter == "all" || filter == status
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// users

type memUsers struct{ m *memStore }

func matchUser(u *entity.User, s specification.Specification) bool {
	switch s := s.(type) {
	case specification.ByID:
		return u.Id == s.ID
	case specification.ByEmail:
		return u.Email == s.Email
	case specification.ByRole:
		return string(u.Role) == s.Role
	case specification.StaffOf:
		return u.InstitutionId != nil && *u.InstitutionId == s.InstitutionID && u.Role == entity.UserRoleInstitution
	case specification.FilterBy:
		if s.Field == "student_id" {
			return u.StudentID == s.Value
		}
	}
	return false
}

func (r memUsers) Create(ctx context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if user.Id == uuid.Nil {
		user.Id = uuid.New()
	}
	r.m.users = append(r.m.users, user)
	return nil
}

func (r memUsers) Update(ctx context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, u := range r.m.users {
		if u.Id == user.Id {
			r.m.users[i] = user
		}
	}
	return nil
}

func (r memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, u := range r.m.users {
		if u.Id == id {
			r.m.users = append(r.m.users[:i], r.m.users[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r memUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	list, _ := r.FindAll(ctx, specs...)
	return first(list), nil
}

func (r memUsers) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return query(r.m.users, specs, matchUser, func(u *entity.User) time.Time { return u.CreatedAt }), nil
}

func (r memUsers) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	list, _ := r.FindAll(ctx, specs...)
	return int64(len(list)), nil
}

func (r memUsers) UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Id == userId {
			u.PasswordHash = hash
		}
	}
	return nil
}

// institutions

type memInstitutions struct{ m *memStore }

func matchInstitution(inst *entity.Institution, s specification.Specification) bool {
	switch s := s.(type) {
	case specification.ByID:
		return inst.Id == s.ID
	case specification.InstitutionLookup:
		v := strings.ToLower(strings.TrimSpace(s.Value))
		return inst.Code == v || strings.ToLower(inst.Name) == v
	}
	return false
}

func matchDocument(d *entity.InstitutionDocument, s specification.Specification) bool {
	switch s := s.(type) {
	case specification.ByID:
		return d.Id == s.ID
	case specification.ByInstitution:
		return d.InstitutionId == s.InstitutionID
	}
	return false
}

func (r memInstitutions) Create(ctx context.Context, inst *entity.Institution) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if inst.Id == uuid.Nil {
		inst.Id = uuid.New()
	}
	r.m.institutions = append(r.m.institutions, inst)
	return nil
}

func (r memInstitutions) Update(ctx context.Context, inst *entity.Institution) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, x := range r.m.institutions {
		if x.Id == inst.Id {
			r.m.institutions[i] = inst
		}
	}
	return nil
}

func (r memInstitutions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Institution, error) {
	list, _ := r.FindAll(ctx, specs...)
	return first(list), nil
}

func (r memInstitutions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Institution, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return query(r.m.institutions, specs, matchInstitution, nil), nil
}

func (r memInstitutions) CreateDocument(ctx context.Context, doc *entity.InstitutionDocument) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.documents = append(r.m.documents, doc)
	return nil
}

func (r memInstitutions) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status entity.InstitutionDocumentStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, d := range r.m.documents {
		if d.Id == id {
			d.Status = status
		}
	}
	return nil
}

func (r memInstitutions) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, d := range r.m.documents {
		if d.Id == id {
			r.m.documents = append(r.m.documents[:i], r.m.documents[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r memInstitutions) FindDocument(ctx context.Context, specs ...specification.Specification) (*entity.InstitutionDocument, error) {
	list, _ := r.FindDocuments(ctx, specs...)
	return first(list), nil
}

func (r memInstitutions) FindDocuments(ctx context.Context, specs ...specification.Specification) ([]*entity.InstitutionDocument, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return query(r.m.documents, specs, matchDocument, func(d *entity.InstitutionDocument) time.Time { return d.UploadedAt }), nil
}

// verifications

type memVerifications struct{ m *memStore }

func matchVerification(v *entity.Verification, s specification.Specification) bool {
	switch s := s.(type) {
	case specification.ByID:
		return v.Id == s.ID
	case specification.ByIDs:
		return containsID(s.IDs, v.Id)
	case specification.ByCode:
		return v.Code == strings.ToUpper(strings.TrimSpace(s.Code))
	case specification.UserOwnedBy:
		return v.UserId == s.UserID
	case specification.ByRun:
		return v.RunId == s.RunID
	case specification.BySubmission:
		return v.SubmissionId == s.SubmissionID
	case specification.ByStatus:
		return statusMatches(s.Status, string(v.Status))
	case specification.ByInstitution:
		return v.InstitutionId != nil && *v.InstitutionId == s.InstitutionID
	case specification.SubmittedSince:
		return !v.SubmittedAt.Before(s.Since)
	}
	return false
}

func matchAudit(e *entity.AuditEvent, s specification.Specification) bool {
	switch s := s.(type) {
	case specification.ByVerification:
		return e.VerificationId == s.VerificationID
	case specification.ByVerifications:
		return containsID(s.VerificationIDs, e.VerificationId)
	}
	return false
}

func matchRequest(r *entity.VerificationRequest, s specification.Specification) bool {
	switch s := s.(type) {
	case specification.ByID:
		return r.Id == s.ID
	case specification.ByInstitution:
		return r.InstitutionId == s.InstitutionID
	case specification.ByVerification:
		return r.VerificationId == s.VerificationID
	case specification.ByStatus:
		return statusMatches(s.Status, string(r.Status))
	case specification.ByDocumentType:
		return statusMatches(s.Type, r.DocumentType)
	case specification.SubmittedSince:
		return !r.SubmittedAt.Before(s.Since)
	}
	return false
}

func (r memVerifications) Create(ctx context.Context, v *entity.Verification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.verifications = append(r.m.verifications, v)
	return nil
}

func (r memVerifications) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.VerificationStatus, verifiedAt *time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, v := range r.m.verifications {
		if v.Id == id {
			v.Status = status
			v.VerifiedAt = verifiedAt
		}
	}
	return nil
}

func (r memVerifications) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Verification, error) {
	list, _ := r.FindAll(ctx, specs...)
	return first(list), nil
}

func (r memVerifications) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Verification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return query(r.m.verifications, specs, matchVerification, func(v *entity.Verification) time.Time { return v.SubmittedAt }), nil
}

func (r memVerifications) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	list, _ := r.FindAll(ctx, specs...)
	return int64(len(list)), nil
}

func (r memVerifications) StatsByUser(ctx context.Context, userId uuid.UUID) (entity.VerificationStats, error) {
	list, _ := r.FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	var st entity.VerificationStats
	for _, v := range list {
		st.Total++
		switch v.Status {
		case entity.VerificationVerified:
			st.Verified++
		case entity.VerificationProcessing:
			st.Processing++
		case entity.VerificationPending:
			st.Pending++
		case entity.VerificationRejected:
			st.Rejected++
		}
	}
	return st, nil
}

func (r memVerifications) NextSequence(ctx context.Context, year int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sequences[year]++
	return r.m.sequences[year], nil
}

func (r memVerifications) CreateAuditEvents(ctx context.Context, list []*entity.AuditEvent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.audit = append(r.m.audit, list...)
	return nil
}

func (r memVerifications) FindAuditEvents(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return query(r.m.audit, specs, matchAudit, func(e *entity.AuditEvent) time.Time { return e.CreatedAt }), nil
}

func (r memVerifications) CreateRequest(ctx context.Context, req *entity.VerificationRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.requests = append(r.m.requests, req)
	return nil
}

func (r memVerifications) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status entity.RequestStatus, reviewer uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, req := range r.m.requests {
		if req.Id == id {
			req.Status = status
			req.ReviewedBy = &reviewer
			req.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r memVerifications) FindRequest(ctx context.Context, specs ...specification.Specification) (*entity.VerificationRequest, error) {
	list, _ := r.FindRequests(ctx, specs...)
	return first(list), nil
}

func (r memVerifications) FindRequests(ctx context.Context, specs ...specification.Specification) ([]*entity.VerificationRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return query(r.m.requests, specs, matchRequest, func(q *entity.VerificationRequest) time.Time { return q.SubmittedAt }), nil
}

func (r memVerifications) CountRequests(ctx context.Context, specs ...specification.Specification) (int64, error) {
	list, _ := r.FindRequests(ctx, specs...)
	return int64(len(list)), nil
}

func (r memVerifications) MonthlyRequestCounts(ctx context.Context, institutionId uuid.UUID, since time.Time) ([]contract.MonthlyCount, error) {
	list, _ := r.FindRequests(ctx, specification.ByInstitution{InstitutionID: institutionId}, specification.SubmittedSince{Since: since})
	byMonth := map[time.Time]*contract.MonthlyCount{}
	var months []time.Time
	for _, q := range list {
		m := time.Date(q.SubmittedAt.Year(), q.SubmittedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		c, ok := byMonth[m]
		if !ok {
			c = &contract.MonthlyCount{Month: m}
			byMonth[m] = c
			months = append(months, m)
		}
		switch q.Status {
		case entity.RequestApproved:
			c.Approved++
		case entity.RequestRejected:
			c.Rejected++
		default:
			c.Pending++
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	out := make([]contract.MonthlyCount, len(months))
	for i, m := range months {
		out[i] = *byMonth[m]
	}
	return out, nil
}

func (r memVerifications) RequestTypeCounts(ctx context.Context, institutionId uuid.UUID, since time.Time) ([]contract.TypeCount, error) {
	list, _ := r.FindRequests(ctx, specification.ByInstitution{InstitutionID: institutionId}, specification.SubmittedSince{Since: since})
	counts := map[string]int{}
	for _, q := range list {
		counts[q.DocumentType]++
	}
	out := make([]contract.TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, contract.TypeCount{DocumentType: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func (r memVerifications) AvgDecisionDays(ctx context.Context, institutionId uuid.UUID, since time.Time) (map[time.Time]float64, error) {
	return map[time.Time]float64{}, nil
}

// recordingPublisher captures published domain events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func (p *recordingPublisher) Last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

func seedInstitution(m *memStore, code, name string, autoApprove bool) *entity.Institution {
	inst := &entity.Institution{
		Id:             uuid.New(),
		Code:           code,
		Name:           name,
		RegistrarName:  "Dr. Michael Chen",
		RegistrarEmail: "registrar@" + code + ".edu",
		Settings:       entity.InstitutionSettings{AutoApprove: autoApprove, ProcessingDays: 3},
	}
	m.institutions = append(m.institutions, inst)
	return inst
}

func seedStudent(m *memStore) *entity.User {
	u := &entity.User{
		Id:        uuid.New(),
		Email:     "sarah.johnson@stanford.edu",
		FirstName: "Sarah",
		LastName:  "Johnson",
		StudentID: "STU-2024-001",
		Role:      entity.UserRoleStudent,
	}
	m.users = append(m.users, u)
	return u
}
