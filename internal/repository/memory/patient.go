// Package memory keeps patient records in process memory. It backs local
// runs without Postgres and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jwalitptl/intake-api/internal/model"
	"github.com/jwalitptl/intake-api/internal/repository"
	"github.com/jwalitptl/intake-api/pkg/validator"
)

type patientRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Patient
	now    func() time.Time
	last   time.Time
}

// NewPatientRepository returns an empty store. now defaults to time.Now.
func NewPatientRepository(now func() time.Time) repository.PatientRepository {
	if now == nil {
		now = time.Now
	}
	return &patientRepository{
		rows: map[int64]model.Patient{},
		now:  now,
	}
}

// timestamp never goes backwards, so every mutation advances updatedAt.
func (r *patientRepository) timestamp() time.Time {
	t := r.now().UTC()
	if !t.After(r.last) {
		t = r.last.Add(time.Microsecond)
	}
	r.last = t
	return t
}

func (r *patientRepository) Create(_ context.Context, fields validator.Fields) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	ts := r.timestamp()
	p := model.Patient{ID: r.nextID, CreatedAt: ts, UpdatedAt: ts}
	apply(&p, fields)
	r.rows[p.ID] = p
	return &p, nil
}

func (r *patientRepository) GetByID(_ context.Context, id int64) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *patientRepository) List(_ context.Context) ([]*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Patient, 0, len(r.rows))
	for _, p := range r.rows {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *patientRepository) Update(_ context.Context, id int64, fields validator.Fields) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !apply(&p, fields) {
		return &p, nil
	}
	p.UpdatedAt = r.timestamp()
	r.rows[id] = p
	return &p, nil
}

func (r *patientRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// apply copies provided values onto p and reports whether anything was set.
func apply(p *model.Patient, fields validator.Fields) bool {
	changed := false
	for _, f := range fields {
		if validator.IsNotProvided(f.Value) {
			continue
		}
		switch f.Name {
		case model.FieldFirstName:
			p.FirstName, _ = f.Value.(string)
		case model.FieldLastName:
			p.LastName, _ = f.Value.(string)
		case model.FieldPhoneNumber:
			p.PhoneNumber, _ = f.Value.(string)
		case model.FieldHealthIssue:
			p.HealthIssue, _ = f.Value.(string)
		case model.FieldAge:
			age, ok := f.Value.(int)
			if !ok {
				continue
			}
			p.Age = &age
		default:
			continue
		}
		changed = true
	}
	return changed
}
