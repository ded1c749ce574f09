package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/llm"
	"github.com/museme-app/museme-engine/pkg/models"
	"github.com/museme-app/museme-engine/pkg/repositories"
)

// fakeTxRunner runs the callback without a real transaction.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeSongRepo struct {
	songs   map[uuid.UUID]*models.Song
	created []*models.Song
	linked  map[uuid.UUID]uuid.UUID
	err     error
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{
		songs:  make(map[uuid.UUID]*models.Song),
		linked: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeSongRepo) Create(ctx context.Context, song *models.Song) error {
	if f.err != nil {
		return f.err
	}
	if song.ID == uuid.Nil {
		song.ID = uuid.New()
	}
	f.songs[song.ID] = song
	f.created = append(f.created, song)
	return nil
}

func (f *fakeSongRepo) Get(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	song, ok := f.songs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return song, nil
}

func (f *fakeSongRepo) List(ctx context.Context) ([]*models.Song, error) {
	var out []*models.Song
	for _, s := range f.songs {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSongRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Song, error) {
	var out []*models.Song
	for _, s := range f.songs {
		if s.ProjectID != nil && *s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSongRepo) LatestByProject(ctx context.Context, projectID uuid.UUID) (*models.Song, error) {
	var latest *models.Song
	for _, s := range f.songs {
		if s.ProjectID == nil || *s.ProjectID != projectID {
			continue
		}
		if latest == nil || s.Version > latest.Version {
			latest = s
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	return latest, nil
}

func (f *fakeSongRepo) SetProject(ctx context.Context, songID, projectID uuid.UUID) error {
	song, ok := f.songs[songID]
	if !ok {
		return apperrors.ErrNotFound
	}
	song.ProjectID = &projectID
	f.linked[songID] = projectID
	return nil
}

func (f *fakeSongRepo) WithTx(tx pgx.Tx) repositories.SongRepository { return f }

type fakeProjectRepo struct {
	projects map[uuid.UUID]*models.Project
	bumps    []int
	err      error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if f.err != nil {
		return f.err
	}
	if project.CurrentVersion == 0 {
		project.CurrentVersion = 1
	}
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjectRepo) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return project, nil
}

func (f *fakeProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjectRepo) BumpVersion(ctx context.Context, id uuid.UUID, newVersion int) error {
	project, ok := f.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	project.CurrentVersion = newVersion
	f.bumps = append(f.bumps, newVersion)
	return nil
}

func (f *fakeProjectRepo) WithTx(tx pgx.Tx) repositories.ProjectRepository { return f }

type fakeAssetRepo struct {
	assets     map[uuid.UUID]*models.Asset
	samples    []models.SampleInfo
	saved      []uuid.UUID
	saveErr    error
	listErr    error
	sampleHits int
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: make(map[uuid.UUID]*models.Asset)}
}

func (f *fakeAssetRepo) Create(ctx context.Context, asset *models.Asset) error {
	f.assets[asset.ID] = asset
	return nil
}

func (f *fakeAssetRepo) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	asset, ok := f.assets[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return asset, nil
}

func (f *fakeAssetRepo) List(ctx context.Context) ([]*models.Asset, error) {
	var out []*models.Asset
	for _, a := range f.assets {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssetRepo) ListUnanalyzed(ctx context.Context) ([]*models.Asset, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Asset
	for _, a := range f.assets {
		if !a.Analyzed {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) ListAnalyzedSamples(ctx context.Context) ([]models.SampleInfo, error) {
	f.sampleHits++
	return f.samples, nil
}

func (f *fakeAssetRepo) SaveAnalysis(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, prompt, rawResponse string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	asset, ok := f.assets[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	asset.Description = result.Description
	asset.Category = result.Category
	asset.Tags = result.Tags
	asset.Analyzed = true
	asset.AnalysisPrompt = prompt
	asset.AnalysisResponse = rawResponse
	f.saved = append(f.saved, id)
	return nil
}

// fakeDispatcher returns canned responses without touching the network.
// onDispatch, when set, runs while the call is "in flight" so tests can
// simulate work that lands during generation.
type fakeDispatcher struct {
	response   string
	err        error
	calls      int
	prompts    []string
	onDispatch func()
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, prompt string, maxRetriesPerCredential int) (*llm.DispatchResult, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.onDispatch != nil {
		f.onDispatch()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.DispatchResult{Text: f.response, CredentialUsed: "test-key"}, nil
}
