package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"aiornot-quiz-service/internal/domain"
	"aiornot-quiz-service/internal/logger"
	"golang.org/x/sync/singleflight"
)

// GameConfig sizes the quiz and the synthetic pool.
type GameConfig struct {
	QuestionCount int
	TargetAssets  int
	MinRequired   int
}

// DefaultGameConfig returns the production quiz geometry.
func DefaultGameConfig() GameConfig {
	return GameConfig{QuestionCount: 10, TargetAssets: 10, MinRequired: 6}
}

// GameDeps wires the collaborators of GameService.
type GameDeps struct {
	Catalog    *domain.Catalog
	Resolver   *Resolver
	Filler     *Filler
	References ReferenceSource
	Assembler  *Assembler
	Rand       *rand.Rand
	Log        *logger.Logger
}

// GameService runs the media provisioning and quiz assembly pipeline.
type GameService struct {
	catalog    *domain.Catalog
	resolver   *Resolver
	filler     *Filler
	references ReferenceSource
	assembler  *Assembler
	cfg        GameConfig
	log        *logger.Logger
	sf         singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGameService(deps GameDeps, cfg GameConfig) *GameService {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.MinRequired < 1 {
		cfg.MinRequired = 1
	}
	return &GameService{
		catalog:    deps.Catalog,
		resolver:   deps.Resolver,
		filler:     deps.Filler,
		references: deps.References,
		assembler:  deps.Assembler,
		cfg:        cfg,
		log:        deps.Log.With("component", "game"),
		rnd:        rnd,
	}
}

// PrepareRequest mirrors the "prepare game" request.
type PrepareRequest struct {
	Topic      string
	Difficulty string
	Keyword    string
}

// PreparedGame is the response of Prepare.
type PreparedGame struct {
	Topic      string            `json:"topic"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Keyword    string            `json:"keyword,omitempty"`
	QuizSets   domain.QuizSet    `json:"quizSets"`
}

// ResolveTopic validates the request and maps it to a concrete topic.
func (s *GameService) ResolveTopic(req PrepareRequest) (domain.Topic, domain.Difficulty, error) {
	difficulty, err := domain.ParseDifficulty(strings.TrimSpace(req.Difficulty))
	if err != nil {
		return domain.Topic{}, "", err
	}
	name := strings.TrimSpace(req.Topic)
	switch name {
	case "":
		return domain.Topic{}, "", domain.Validationf("topic is required")
	case domain.TopicCustom:
		kw, err := domain.ValidateKeyword(req.Keyword)
		if err != nil {
			return domain.Topic{}, "", err
		}
		return domain.KeywordTopic(kw), difficulty, nil
	case domain.TopicRandom:
		names := s.catalog.Names()
		if len(names) == 0 {
			return domain.Topic{}, "", domain.Validationf("topic catalog is empty")
		}
		s.mu.Lock()
		pick := names[s.rnd.Intn(len(names))]
		s.mu.Unlock()
		topic, _ := s.catalog.Lookup(pick)
		return topic, difficulty, nil
	}
	topic, ok := s.catalog.Lookup(name)
	if !ok {
		return domain.Topic{}, "", domain.Validationf("unknown topic %q", name)
	}
	return topic, difficulty, nil
}

// Prepare provisions synthetic images, fetches decoys and assembles a quiz set.
// onProgress may be nil.
func (s *GameService) Prepare(ctx context.Context, req PrepareRequest, onProgress func(ProgressEvent)) (PreparedGame, error) {
	emit := func(ev ProgressEvent) {
		if onProgress != nil {
			onProgress(ev)
		}
	}

	topic, difficulty, err := s.ResolveTopic(req)
	if err != nil {
		return PreparedGame{}, err
	}

	pool, err := s.Provision(ctx, topic, emit)
	if err != nil {
		return PreparedGame{}, err
	}
	if pool.Len() < s.cfg.MinRequired {
		s.log.Error("synthetic pool below minimum", "namespace", topic.Namespace, "have", pool.Len(), "need", s.cfg.MinRequired)
		return PreparedGame{}, &domain.InsufficientAssetsError{Reason: "too few synthetic images", Have: pool.Len(), Need: s.cfg.MinRequired}
	}

	questions := min(s.cfg.QuestionCount, pool.Len())
	need := (difficulty.ImagesPerQuestion() - 1) * questions
	emit(ProgressEvent{Stage: StageReference, Done: 0, Total: need})
	urls, err := s.references.Search(ctx, topic.SearchTerm, need+need/2+1)
	if err != nil {
		return PreparedGame{}, fmt.Errorf("%w: reference search %q: %w", domain.ErrUpstream, topic.SearchTerm, err)
	}
	emit(ProgressEvent{Stage: StageReference, Done: len(urls), Total: need})

	quiz, err := s.assembler.Assemble(pool.Refs(), urls, difficulty.ImagesPerQuestion(), s.cfg.QuestionCount)
	if err != nil {
		return PreparedGame{}, err
	}
	emit(ProgressEvent{Stage: StageAssemble, Done: len(quiz), Total: len(quiz)})

	keyword := ""
	if topic.Name == domain.TopicCustom {
		keyword = topic.SearchTerm
	}
	return PreparedGame{
		Topic:      strings.TrimSpace(req.Topic),
		Difficulty: difficulty,
		Keyword:    keyword,
		QuizSets:   quiz,
	}, nil
}

// Provision resolves cached images for the topic and generates the deficit. Concurrent calls for
// the same namespace share one resolve and fill; only the first caller receives progress events.
func (s *GameService) Provision(ctx context.Context, topic domain.Topic, emit func(ProgressEvent)) (*domain.AssetPool, error) {
	if emit == nil {
		emit = func(ProgressEvent) {}
	}
	v, err, shared := s.sf.Do(topic.Namespace, func() (interface{}, error) {
		// Generation outlives a single disconnecting caller; the work is shared.
		ctx := context.WithoutCancel(ctx)

		pool, deficit, err := s.resolver.Resolve(ctx, topic.Namespace, s.cfg.TargetAssets)
		if err != nil {
			return nil, err
		}
		emit(ProgressEvent{Stage: StageResolve, Done: pool.Len(), Total: s.cfg.TargetAssets})
		if deficit == 0 {
			return pool, nil
		}

		report := s.filler.Fill(ctx, topic.Namespace, topic.Prompts, deficit, func(done, total int) {
			emit(ProgressEvent{Stage: StageGenerate, Done: done, Total: total})
		})
		pool.Add(report.Refs...)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	pool := v.(*domain.AssetPool)
	if shared {
		// Callers must not share the mutable pool.
		pool = domain.NewAssetPool(pool.Refs()...)
	}
	return pool, nil
}

// Warm provisions every catalog topic, e.g. ahead of traffic.
func (s *GameService) Warm(ctx context.Context, names ...string) (map[string]int, error) {
	if len(names) == 0 {
		names = s.catalog.Names()
	}
	out := make(map[string]int, len(names))
	for _, name := range names {
		topic, ok := s.catalog.Lookup(name)
		if !ok {
			return out, domain.Validationf("unknown topic %q", name)
		}
		pool, err := s.Provision(ctx, topic, nil)
		if err != nil {
			return out, err
		}
		out[name] = pool.Len()
		s.log.Info("topic warmed", "topic", name, "assets", pool.Len())
	}
	return out, nil
}
