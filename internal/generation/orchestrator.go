// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generation runs storybook generations. Local generations walk a
// per-client Session through photo processing, layout and rendering; remote
// generations are delegated to the workflow service and tracked as
// ActiveGenerations until the client dismisses them.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storybook/internal/document"
	"storybook/internal/imaging"
	"storybook/internal/models"
	"storybook/internal/remote"
	"storybook/internal/stories"
)

// Progress milestones of a local generation.
const (
	ProgressStory      = 10
	ProgressPersonal   = 20
	ProgressValidated  = 30
	ProgressCompressed = 50
	ProgressCropped    = 70 // crossing this enters StateGenerating
	ProgressComposed   = 80
	ProgressRendered   = 90
	ProgressDone       = 100
)

// bookkeepingTimeout bounds the writes that record a remote outcome.
const bookkeepingTimeout = 10 * time.Second

// RemoteFailureMessage is what users see when the remote service fails.
const RemoteFailureMessage = "We couldn't create your storybook right now. Please try again."

// ThemeLookup resolves an active theme.
type ThemeLookup interface {
	Lookup(id string) (models.Theme, error)
}

// StoryLookup resolves the story template of a theme.
type StoryLookup interface {
	Lookup(themeID string) (models.Story, error)
}

// HistoryAdder records completed generations.
type HistoryAdder interface {
	Add(ctx context.Context, item models.HistoryItem) error
}

// ArtifactStore keeps rendered files.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// Tracker persists remote ActiveGenerations per owner.
type Tracker interface {
	Save(ctx context.Context, g models.ActiveGeneration) error
	// Update replaces g only while it is tracked and returns
	// models.ErrNotFound otherwise.
	Update(ctx context.Context, g models.ActiveGeneration) error
	List(ctx context.Context, owner string) ([]models.ActiveGeneration, error)
	Delete(ctx context.Context, owner, id string) error
	Clear(ctx context.Context, owner string) error
}

// RemoteGenerator calls the remote workflow service.
type RemoteGenerator interface {
	Generate(ctx context.Context, req remote.Request) (*remote.Result, error)
}

// Publisher pushes progress events to a client.
type Publisher interface {
	Publish(ctx context.Context, owner string, ev models.ProgressEvent)
}

// Deps are the collaborators of an Orchestrator. Remote and Publisher
// may be nil.
type Deps struct {
	Themes    ThemeLookup
	Stories   StoryLookup
	History   HistoryAdder
	Artifacts ArtifactStore
	Tracker   Tracker
	Remote    RemoteGenerator
	Publisher Publisher

	// PublicBaseURL prefixes share links printed into storybooks.
	PublicBaseURL string

	// SessionTTL is how long a finished local session stays readable.
	// Zero means DefaultSessionTTL.
	SessionTTL time.Duration
}

// DefaultSessionTTL keeps finished local sessions for half an hour.
const DefaultSessionTTL = 30 * time.Minute

// Orchestrator coordinates local and remote generations.
type Orchestrator struct {
	deps Deps
	now  func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	lastSweep time.Time

	// Remote calls outlive the request that started them.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = DefaultSessionTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		deps:     deps,
		now:      time.Now,
		sessions: make(map[string]*Session),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

func (o *Orchestrator) session(owner string) *Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sweepLocked()
	s, ok := o.sessions[owner]
	if !ok {
		s = NewSession()
		s.now = o.now
		o.sessions[owner] = s
	}
	return s
}

// sweepLocked drops sessions that finished more than SessionTTL ago. It
// scans at most once per SessionTTL/4. o.mu must be held.
func (o *Orchestrator) sweepLocked() {
	now := o.now()
	if now.Sub(o.lastSweep) < o.deps.SessionTTL/4 {
		return
	}
	o.lastSweep = now
	cutoff := now.Add(-o.deps.SessionTTL)
	for owner, s := range o.sessions {
		if s.Expired(cutoff) {
			delete(o.sessions, owner)
		}
	}
}

// Current returns the owner's local session state.
func (o *Orchestrator) Current(owner string) Snapshot {
	o.mu.Lock()
	o.sweepLocked()
	s, ok := o.sessions[owner]
	o.mu.Unlock()
	if !ok {
		return Snapshot{State: StateIdle}
	}
	return s.Snapshot()
}

// Reset returns the owner's session to idle and stops tracking their
// remote generations. Remote calls already sent keep running; their
// results still land in history.
func (o *Orchestrator) Reset(ctx context.Context, owner string) error {
	o.mu.Lock()
	delete(o.sessions, owner)
	o.mu.Unlock()
	if err := o.deps.Tracker.Clear(ctx, owner); err != nil {
		return fmt.Errorf("reset generations: %w", err)
	}
	return nil
}

// validate runs every synchronous check before any pipeline work.
func (o *Orchestrator) validate(req *Request) (models.Theme, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.Theme{}, err
	}
	theme, err := o.deps.Themes.Lookup(req.ThemeID)
	if err != nil {
		return models.Theme{}, err
	}
	return theme, nil
}

// Generate runs a local generation to completion and returns its history
// item. Invalid input is rejected before the session leaves idle. A
// second call while one is processing or generating fails with
// models.ErrBusy; a finished session is replaced.
func (o *Orchestrator) Generate(ctx context.Context, owner string, req Request) (models.HistoryItem, error) {
	theme, err := o.validate(&req)
	if err != nil {
		return models.HistoryItem{}, err
	}

	sess := o.session(owner)
	genID := uuid.NewString()
	if err := sess.Restart(genID, req.ChildName, theme.Snapshot(), o.now()); err != nil {
		return models.HistoryItem{}, models.ErrBusy
	}
	slog.Info("local generation started", "generation_id", genID, "theme_id", theme.ID)

	r := &run{o: o, ctx: ctx, owner: owner, id: genID, sess: sess}
	item, err := r.local(req, theme)
	if err != nil {
		sess.Fail(err)
		r.emit(models.StatusFailed, err.Error(), "")
		slog.Error("local generation failed", "generation_id", genID, "error", err)
		return models.HistoryItem{}, err
	}
	slog.Info("local generation completed", "generation_id", genID, "history_id", item.ID)
	return item, nil
}

// run carries one local generation through its milestones.
type run struct {
	o     *Orchestrator
	ctx   context.Context
	owner string
	id    string
	sess  *Session
}

func (r *run) advance(progress int, msg string) error {
	if err := r.sess.Advance(progress); err != nil {
		return err
	}
	r.emit(models.StatusPending, msg, "")
	return nil
}

func (r *run) emit(status models.GenerationStatus, msg, historyID string) {
	if r.o.deps.Publisher == nil {
		return
	}
	snap := r.sess.Snapshot()
	r.o.deps.Publisher.Publish(r.ctx, r.owner, models.ProgressEvent{
		GenerationID: r.id,
		Mode:         models.ModeLocal,
		State:        string(snap.State),
		Status:       status,
		Progress:     snap.Progress,
		Message:      msg,
		HistoryID:    historyID,
	})
}

func (r *run) local(req Request, theme models.Theme) (models.HistoryItem, error) {
	story, err := r.o.deps.Stories.Lookup(theme.ID)
	if err != nil {
		return models.HistoryItem{}, fmt.Errorf("story for theme %s: %w", theme.ID, err)
	}
	if err := r.advance(ProgressStory, "Story found"); err != nil {
		return models.HistoryItem{}, err
	}

	personal := stories.Personalize(story, req.ChildName)
	if err := r.advance(ProgressPersonal, "Story personalized"); err != nil {
		return models.HistoryItem{}, err
	}

	photo, err := imaging.Process(req.Photo, req.PhotoType, func(step imaging.Step) error {
		switch step {
		case imaging.StepValidated:
			return r.advance(ProgressValidated, "Photo accepted")
		case imaging.StepCompressed:
			return r.advance(ProgressCompressed, "Photo optimized")
		}
		return nil
	})
	if err != nil {
		return models.HistoryItem{}, err
	}
	if err := r.sess.EnterGenerating(ProgressCropped); err != nil {
		return models.HistoryItem{}, err
	}
	r.emit(models.StatusPending, "Creating your storybook", "")

	now := r.o.now().UTC()
	historyID := models.NewHistoryID(now)
	downloadPath := DownloadPath(historyID)

	doc, err := document.Assemble(personal, theme, photo, document.Options{
		ShareURL:  r.o.shareURL(downloadPath),
		CreatedAt: now,
	})
	if err != nil {
		return models.HistoryItem{}, err
	}
	if err := r.advance(ProgressComposed, "Pages laid out"); err != nil {
		return models.HistoryItem{}, err
	}

	pdf, err := document.Render(doc)
	if err != nil {
		return models.HistoryItem{}, err
	}
	if err := r.advance(ProgressRendered, "Storybook rendered"); err != nil {
		return models.HistoryItem{}, err
	}

	item := models.HistoryItem{
		ID:           historyID,
		Owner:        r.owner,
		ChildName:    req.ChildName,
		ThemeID:      theme.ID,
		ThemeName:    theme.Name,
		ThemeEmoji:   theme.Emoji,
		Source:       models.SourceLocal,
		ArtifactRef:  downloadPath,
		ThumbnailRef: downloadPath + "?part=cover",
		ArtifactKey:  ArtifactKey(historyID),
		ThumbnailKey: ThumbnailKey(historyID),
		CreatedAt:    now,
	}
	if err := r.o.deps.Artifacts.Put(r.ctx, item.ArtifactKey, "application/pdf", pdf); err != nil {
		return models.HistoryItem{}, fmt.Errorf("store storybook: %w", err)
	}
	if err := r.o.deps.Artifacts.Put(r.ctx, item.ThumbnailKey, "image/png", thumb); err != nil {
		return models.HistoryItem{}, fmt.Errorf("store thumbnail: %w", err)
	}
	if err := r.o.deps.History.Add(r.ctx, item); err != nil {
		return models.HistoryItem{}, fmt.Errorf("record history: %w", err)
	}

	if err := r.sess.Complete(item); err != nil {
		return models.HistoryItem{}, err
	}
	r.emit(models.StatusCompleted, "Your storybook is ready", item.ID)
	return item, nil
}

// StartRemote validates the request, registers a pending ActiveGeneration
// and calls the remote service in the background. The theme must be
// active before anything is sent.
func (o *Orchestrator) StartRemote(ctx context.Context, owner string, req Request) (models.ActiveGeneration, error) {
	if o.deps.Remote == nil {
		return models.ActiveGeneration{}, fmt.Errorf("%w: remote generation is not configured", models.ErrRemote)
	}
	theme, err := o.validate(&req)
	if err != nil {
		return models.ActiveGeneration{}, err
	}

	rreq := remote.NewRequest(req.ChildName, theme, req.Photo, req.PhotoType)
	if err := rreq.Validate(); err != nil {
		return models.ActiveGeneration{}, err
	}

	gen := models.ActiveGeneration{
		ID:        uuid.NewString(),
		Owner:     owner,
		Mode:      models.ModeRemote,
		ChildName: req.ChildName,
		Theme:     theme.Snapshot(),
		Status:    models.StatusPending,
		StartedAt: o.now().UTC(),
	}
	if err := o.deps.Tracker.Save(ctx, gen); err != nil {
		return models.ActiveGeneration{}, fmt.Errorf("track generation: %w", err)
	}
	o.publishGen(ctx, gen, "Sent to the storybook studio")
	slog.Info("remote generation started", "generation_id", gen.ID, "theme_id", theme.ID)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runRemote(gen, rreq)
	}()
	return gen, nil
}

func (o *Orchestrator) runRemote(gen models.ActiveGeneration, req remote.Request) {
	res, err := o.deps.Remote.Generate(o.baseCtx, req)

	// Bookkeeping still runs when Shutdown has cancelled the call.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(o.baseCtx), bookkeepingTimeout)
	defer cancel()

	var item models.HistoryItem
	if err == nil {
		item, err = o.recordRemote(ctx, gen, res)
	}

	if err != nil {
		slog.Error("remote generation failed", "generation_id", gen.ID, "error", err)
		gen.Status = models.StatusFailed
		gen.Error = RemoteFailureMessage
	} else {
		slog.Info("remote generation completed", "generation_id", gen.ID, "history_id", item.ID)
		gen.Status = models.StatusCompleted
		gen.Progress = ProgressDone
		gen.HistoryID = item.ID
	}
	gen.Touch(o.now())

	// A dismissed or reset generation is not tracked again.
	if err := o.deps.Tracker.Update(ctx, gen); err != nil && !errors.Is(err, models.ErrNotFound) {
		slog.Warn("failed to update generation", "generation_id", gen.ID, "error", err)
	}
	o.publishGen(ctx, gen, gen.Error)
}

// recordRemote turns a remote result into a history item. Inline PDFs
// are stored locally; URLs are kept as references.
func (o *Orchestrator) recordRemote(ctx context.Context, gen models.ActiveGeneration, res *remote.Result) (models.HistoryItem, error) {
	now := o.now().UTC()
	item := models.HistoryItem{
		ID:                  models.NewHistoryID(now),
		Owner:               gen.Owner,
		ChildName:           gen.ChildName,
		ThemeID:             gen.Theme.ID,
		ThemeName:           gen.Theme.Name,
		ThemeEmoji:          gen.Theme.Emoji,
		Source:              models.SourceRemote,
		ArtifactRef:         res.ArtifactURL,
		ArtifactDownloadURL: res.ArtifactDownload,
		ThumbnailRef:        res.CoverURL,
		CoverDownloadURL:    res.CoverDownload,
		CreatedAt:           now,
	}
	if res.PDF != nil {
		item.ArtifactKey = ArtifactKey(item.ID)
		item.ArtifactRef = DownloadPath(item.ID)
		if err := o.deps.Artifacts.Put(ctx, item.ArtifactKey, "application/pdf", res.PDF); err != nil {
			return item, fmt.Errorf("store remote storybook: %w", err)
		}
	}
	if err := o.deps.History.Add(ctx, item); err != nil {
		return item, fmt.Errorf("record history: %w", err)
	}
	return item, nil
}

func (o *Orchestrator) publishGen(ctx context.Context, gen models.ActiveGeneration, msg string) {
	if o.deps.Publisher == nil {
		return
	}
	o.deps.Publisher.Publish(ctx, gen.Owner, models.ProgressEvent{
		GenerationID: gen.ID,
		Mode:         models.ModeRemote,
		Status:       gen.Status,
		Progress:     gen.Progress,
		Message:      msg,
		HistoryID:    gen.HistoryID,
	})
}

// List returns the owner's tracked remote generations.
func (o *Orchestrator) List(ctx context.Context, owner string) ([]models.ActiveGeneration, error) {
	gens, err := o.deps.Tracker.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := o.now()
	for i := range gens {
		if gens[i].Status == models.StatusPending {
			gens[i].Touch(now)
		}
	}
	return gens, nil
}

// Dismiss stops tracking a remote generation. It does not cancel it.
func (o *Orchestrator) Dismiss(ctx context.Context, owner, id string) error {
	return o.deps.Tracker.Delete(ctx, owner, id)
}

// Shutdown waits for in-flight remote calls. When ctx expires first the
// calls are cancelled and ctx's error is returned.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.cancel()
		<-done
		return ctx.Err()
	}
}

func (o *Orchestrator) shareURL(path string) string {
	if o.deps.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimRight(o.deps.PublicBaseURL, "/") + path
}

// DownloadPath is the API path serving a history item's storybook.
func DownloadPath(historyID string) string {
	return "/api/history/" + historyID + "/download"
}

// ArtifactKey is the storage key of a rendered storybook.
func ArtifactKey(historyID string) string {
	return "storybooks/" + historyID + ".pdf"
}

// ThumbnailKey is the storage key of a storybook's thumbnail.
func ThumbnailKey(historyID string) string {
	return "thumbnails/" + historyID + ".png"
}
