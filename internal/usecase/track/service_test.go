package track

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"applytrack/internal/domain/entity"
)

type fakeAppRepo struct {
	apps    map[uuid.UUID]*entity.Application
	scoreOf map[uuid.UUID]entity.MatchScore
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{
		apps:    make(map[uuid.UUID]*entity.Application),
		scoreOf: make(map[uuid.UUID]entity.MatchScore),
	}
}

func (f *fakeAppRepo) Get(_ context.Context, id uuid.UUID) (*entity.Application, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return app, nil
}

func (f *fakeAppRepo) List(_ context.Context) ([]*entity.Application, error) {
	out := make([]*entity.Application, 0, len(f.apps))
	for _, app := range f.apps {
		out = append(out, app)
	}
	return out, nil
}

func (f *fakeAppRepo) Create(_ context.Context, app *entity.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	f.apps[app.ID] = app
	return nil
}

func (f *fakeAppRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.Status) error {
	app, ok := f.apps[id]
	if !ok {
		return entity.ErrNotFound
	}
	app.Status = status
	return nil
}

func (f *fakeAppRepo) SetScore(_ context.Context, id uuid.UUID, score entity.MatchScore) error {
	if _, ok := f.apps[id]; !ok {
		return entity.ErrNotFound
	}
	f.scoreOf[id] = score
	return nil
}

func (f *fakeAppRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.apps[id]; !ok {
		return entity.ErrNotFound
	}
	delete(f.apps, id)
	return nil
}

type fakeJobRepo struct {
	jobs map[uuid.UUID]*entity.JobPosting
}

func (f *fakeJobRepo) Get(_ context.Context, id uuid.UUID) (*entity.JobPosting, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return job, nil
}

func (f *fakeJobRepo) Upsert(_ context.Context, job *entity.JobPosting) error {
	f.jobs[job.ID] = job
	return nil
}

type fakeScorer struct {
	score *entity.MatchScore
	err   error
	calls int
}

func (f *fakeScorer) Score(_ context.Context, _ *entity.JobPosting, _ string) (*entity.MatchScore, error) {
	f.calls++
	return f.score, f.err
}

func newTestService() (*Service, *fakeAppRepo, *fakeJobRepo, *fakeScorer) {
	apps := newFakeAppRepo()
	jobs := &fakeJobRepo{jobs: make(map[uuid.UUID]*entity.JobPosting)}
	scorer := &fakeScorer{score: &entity.MatchScore{Score: 72, Rationale: "ok", ScoredAt: time.Now()}}
	return NewService(apps, jobs, scorer, nil), apps, jobs, scorer
}

func trackedJob(jobs *fakeJobRepo) uuid.UUID {
	id := uuid.New()
	jobs.jobs[id] = &entity.JobPosting{ID: id, Title: "Engineer", Company: "Acme", URL: "https://example.com"}
	return id
}

func TestCreate(t *testing.T) {
	svc, apps, jobs, _ := newTestService()
	jobID := trackedJob(jobs)

	app, err := svc.Create(context.Background(), CreateInput{JobID: jobID, Notes: "via referral"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if app.Status != entity.StatusApplied {
		t.Errorf("status = %q, want applied", app.Status)
	}
	if _, ok := apps.apps[app.ID]; !ok {
		t.Error("application not persisted")
	}
}

func TestCreateUnknownJob(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{JobID: uuid.New()})
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, apps, jobs, _ := newTestService()
	jobID := trackedJob(jobs)
	app, err := svc.Create(context.Background(), CreateInput{JobID: jobID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), app.ID, entity.StatusInterview); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got := apps.apps[app.ID].Status; got != entity.StatusInterview {
		t.Errorf("status = %q, want interview", got)
	}
}

func TestScoreApplication(t *testing.T) {
	svc, apps, jobs, scorer := newTestService()
	jobID := trackedJob(jobs)
	app, err := svc.Create(context.Background(), CreateInput{JobID: jobID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	score, err := svc.ScoreApplication(context.Background(), app.ID, "Go backend engineer, 5 years")
	if err != nil {
		t.Fatalf("ScoreApplication: %v", err)
	}
	if score.Score != 72 {
		t.Errorf("score = %d, want 72", score.Score)
	}
	if scorer.calls != 1 {
		t.Errorf("scorer calls = %d, want 1", scorer.calls)
	}
	if got := apps.scoreOf[app.ID]; got.Score != 72 {
		t.Errorf("persisted score = %d, want 72", got.Score)
	}
}

func TestScoreApplicationScorerFailure(t *testing.T) {
	svc, apps, jobs, scorer := newTestService()
	jobID := trackedJob(jobs)
	app, err := svc.Create(context.Background(), CreateInput{JobID: jobID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	scorer.err = errors.New("provider down")
	scorer.score = nil
	if _, err := svc.ScoreApplication(context.Background(), app.ID, "profile"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := apps.scoreOf[app.ID]; ok {
		t.Error("score persisted despite scorer failure")
	}
}

func TestDelete(t *testing.T) {
	svc, apps, jobs, _ := newTestService()
	jobID := trackedJob(jobs)
	app, err := svc.Create(context.Background(), CreateInput{JobID: jobID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), app.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(apps.apps) != 0 {
		t.Error("application still present after delete")
	}
	if err := svc.Delete(context.Background(), app.ID); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
