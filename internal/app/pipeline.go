package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

// defaultClassifyWorkers ограничивает параллелизм классификации.
const defaultClassifyWorkers = 10

// ErrNotConfigured возвращается, когда пайплайн запущен без обязательных зависимостей.
var ErrNotConfigured = errors.New("pipeline dependencies not configured")

// Clock определяет источник времени (удобно подменять в тестах).
type Clock func() time.Time

// Collector отдаёт сырые записи портала и маппинг кодов предметов.
type Collector interface {
	Collect(ctx context.Context) ([]announce.RawRecord, error)
	Subjects(ctx context.Context) (map[string]string, error)
}

// Ingestor разворачивает сырую запись в объявление.
type Ingestor interface {
	Ingest(rec announce.RawRecord) (announce.Announcement, error)
}

// KindClassifier заполняет предмет и тип объявления.
type KindClassifier interface {
	Classify(a announce.Announcement, subjects map[string]string) (announce.Announcement, error)
}

// DateExtractor ищет дедлайн в тексте объявления.
type DateExtractor interface {
	Extract(message string, now time.Time) (announce.Deadline, bool)
}

// LinkExtractor ищет ссылки на онлайн-встречи.
type LinkExtractor interface {
	Extract(message string) []string
}

// PostponedResolver гасит устаревшие версии перенесённых событий.
type PostponedResolver interface {
	Resolve(batch []announce.Announcement) []announce.Announcement
}

// ReminderEngine отбирает объявления, по которым пора напоминать.
type ReminderEngine interface {
	Evaluate(batch []announce.Announcement) []announce.Announcement
}

// Condenser сокращает длинные тексты объявлений.
type Condenser interface {
	Condense(ctx context.Context, anns []announce.Announcement) (map[string]string, error)
}

// Formatter превращает объявления в готовые сообщения.
type Formatter interface {
	BuildMessages(anns []announce.Announcement, overrides map[string]string) ([]string, error)
}

// Sender публикует подготовленные сообщения в Telegram.
type Sender interface {
	Send(ctx context.Context, recipients []announce.RecipientBinding, messages []string) error
	Respond(ctx context.Context, chatID string, text string) error
}

// RecipientResolver управляет списком получателей и собирает
// накопившиеся поисковые запросы.
type RecipientResolver interface {
	Resolve(ctx context.Context, state announce.State) (announce.State, []announce.RecipientBinding, []announce.SearchRequest, error)
}

// SearchService отвечает на поисковые запросы по классифицированной пачке.
type SearchService interface {
	Answer(batch []announce.Announcement, query string) string
}

// StateStore хранит и обновляет файл состояния.
type StateStore interface {
	Load(ctx context.Context) (announce.State, error)
	Save(ctx context.Context, state announce.State) error
}

// LinksStore хранит дайджест ссылок на встречи по предметам.
type LinksStore interface {
	Load(ctx context.Context) (map[string][]string, error)
	Save(ctx context.Context, links map[string][]string) error
}

// EmailNotifier - запасной канал доставки.
type EmailNotifier interface {
	SendAll(ctx context.Context, messages []string) error
}

// PipelineDeps перечисляет зависимости пайплайна.
type PipelineDeps struct {
	Collector       Collector
	Ingestor        Ingestor
	Classifier      KindClassifier
	Deadlines       DateExtractor
	Links           LinkExtractor
	Postponed       PostponedResolver
	Reminders       ReminderEngine
	Condenser       Condenser // nil, если сокращение отключено
	Formatter       Formatter
	Sender          Sender
	Recipients      RecipientResolver // nil, если auto_subscribe отключён
	Search          SearchService     // nil, если поиск отключён
	StateStore      StateStore
	LinksStore      LinksStore    // nil, если дайджест ссылок отключён
	Email           EmailNotifier // nil, если почтовый канал отключён
	Clock           Clock
	ClassifyWorkers int
	ForceDispatch   bool
}

// Pipeline инкапсулирует один запуск обработки объявлений.
type Pipeline struct {
	collector       Collector
	ingestor        Ingestor
	classifier      KindClassifier
	deadlines       DateExtractor
	links           LinkExtractor
	postponed       PostponedResolver
	reminders       ReminderEngine
	condenser       Condenser
	formatter       Formatter
	sender          Sender
	recipients      RecipientResolver
	search          SearchService
	stateStore      StateStore
	linksStore      LinksStore
	email           EmailNotifier
	clock           Clock
	classifyWorkers int
	forceDispatch   bool
}

// NewPipeline создаёт новый экземпляр пайплайна.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	workers := deps.ClassifyWorkers
	if workers <= 0 {
		workers = defaultClassifyWorkers
	}

	return &Pipeline{
		collector:       deps.Collector,
		ingestor:        deps.Ingestor,
		classifier:      deps.Classifier,
		deadlines:       deps.Deadlines,
		links:           deps.Links,
		postponed:       deps.Postponed,
		reminders:       deps.Reminders,
		condenser:       deps.Condenser,
		formatter:       deps.Formatter,
		sender:          deps.Sender,
		recipients:      deps.Recipients,
		search:          deps.Search,
		stateStore:      deps.StateStore,
		linksStore:      deps.LinksStore,
		email:           deps.Email,
		clock:           clock,
		classifyWorkers: workers,
		forceDispatch:   deps.ForceDispatch,
	}
}

// Run исполняет полный цикл: сбор, разбор, классификация, дедупликация
// переносов, машина напоминаний, доставка.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.validateDeps(); err != nil {
		return err
	}

	state, err := p.stateStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	var recipients []announce.RecipientBinding
	var searches []announce.SearchRequest
	if p.recipients != nil {
		state, recipients, searches, err = p.recipients.Resolve(ctx, state)
		if err != nil {
			return fmt.Errorf("resolve recipients: %w", err)
		}
	}

	log.Println("[INFO] step 1: collecting announcements from the portal...")
	subjects, err := p.collector.Subjects(ctx)
	if err != nil {
		return fmt.Errorf("collect subjects: %w", err)
	}
	records, err := p.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect announcements: %w", err)
	}
	log.Printf("[INFO] collected %d raw records, %d subjects", len(records), len(subjects))

	log.Println("[INFO] step 2: ingesting records...")
	ingested := p.ingestBatch(records)
	log.Printf("[INFO] ingested %d announcements", len(ingested))

	log.Println("[INFO] step 3: classifying and extracting...")
	classified := p.classifyBatch(ctx, ingested, subjects)
	log.Printf("[INFO] classified %d announcements", len(classified))

	log.Println("[INFO] step 4: resolving postponed events...")
	classified = p.postponed.Resolve(classified)

	log.Println("[INFO] step 5: evaluating reminder state machine...")
	due := p.reminders.Evaluate(classified)
	log.Printf("[INFO] %d announcements due for a reminder", len(due))

	overrides := map[string]string{}
	if p.condenser != nil && len(due) > 0 {
		log.Println("[INFO] step 6: condensing long announcements...")
		overrides, err = p.condenser.Condense(ctx, due)
		if err != nil {
			// Сокращение - удобство, а не обязанность: шлём полные
			// тексты, чтобы не потерять напоминание.
			log.Printf("[WARN] condensing failed, sending full texts: %v", err)
			overrides = map[string]string{}
		}
	}

	log.Println("[INFO] step 7: formatting messages...")
	messages, err := p.formatter.BuildMessages(due, overrides)
	if err != nil {
		return fmt.Errorf("build messages: %w", err)
	}
	log.Printf("[INFO] formatted %d messages", len(messages))

	if len(messages) > 0 {
		if len(recipients) == 0 && !p.forceDispatch {
			return fmt.Errorf("no recipients registered; ask users to contact the bot")
		}
		if len(recipients) > 0 {
			if err := p.sender.Send(ctx, recipients, messages); err != nil {
				return fmt.Errorf("send messages: %w", err)
			}
		}
		if p.email != nil {
			if err := p.email.SendAll(ctx, messages); err != nil {
				log.Printf("[WARN] email delivery failed: %v", err)
			}
		}
	}

	p.answerSearches(ctx, classified, searches)

	if p.linksStore != nil {
		if err := p.updateLinksDigest(ctx, classified); err != nil {
			log.Printf("[WARN] links digest not updated: %v", err)
		}
	}

	state.LastRun = p.clock()
	if err := p.stateStore.Save(ctx, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}

// ingestBatch разворачивает сырые записи. Битая запись выбрасывается
// с warning, остальная пачка продолжает жить.
func (p *Pipeline) ingestBatch(records []announce.RawRecord) []announce.Announcement {
	anns := make([]announce.Announcement, 0, len(records))
	for _, rec := range records {
		a, err := p.ingestor.Ingest(rec)
		if err != nil {
			log.Printf("[WARN] record dropped: %v", err)
			continue
		}
		anns = append(anns, a)
	}
	return anns
}

// classifyBatch прогоняет объявления через классификатор и экстракторы
// параллельно. Каждая горутина владеет своей копией объявления
// и возвращает её по каналу; общих мутаций нет. Итог сортируется
// по времени публикации, чтобы выдача была детерминированной.
func (p *Pipeline) classifyBatch(ctx context.Context, anns []announce.Announcement, subjects map[string]string) []announce.Announcement {
	now := p.clock()

	sem := make(chan struct{}, p.classifyWorkers)
	results := make(chan announce.Announcement, len(anns))

	started := 0
	dropped := 0
	for _, a := range anns {
		select {
		case <-ctx.Done():
			dropped++
		case sem <- struct{}{}:
			started++
			go func(a announce.Announcement) {
				defer func() { <-sem }()

				classified, err := p.classifier.Classify(a, subjects)
				if err != nil {
					log.Printf("[WARN] announcement excluded: %v", err)
					results <- announce.Announcement{}
					return
				}

				if d, ok := p.deadlines.Extract(classified.Message, now); ok {
					classified.Deadline = &d
				}
				classified.Links = p.links.Extract(classified.Message)

				results <- classified
			}(a)
		}
	}

	if dropped > 0 {
		log.Printf("[WARN] run cancelled, %d announcements left unclassified", dropped)
	}

	classified := make([]announce.Announcement, 0, started)
	for i := 0; i < started; i++ {
		a := <-results
		if a.ID == "" {
			continue
		}
		classified = append(classified, a)
	}

	sort.Slice(classified, func(i, j int) bool {
		if classified[i].CreatedAt.Equal(classified[j].CreatedAt) {
			return classified[i].ID < classified[j].ID
		}
		return classified[i].CreatedAt.Before(classified[j].CreatedAt)
	})

	return classified
}

// answerSearches отвечает на накопившиеся запросы "/search".
// Ошибка ответа одному пользователю не трогает остальных.
func (p *Pipeline) answerSearches(ctx context.Context, batch []announce.Announcement, searches []announce.SearchRequest) {
	if p.search == nil || len(searches) == 0 {
		return
	}

	for _, req := range searches {
		reply := p.search.Answer(batch, req.Query)
		if err := p.sender.Respond(ctx, req.ChatID, reply); err != nil {
			log.Printf("[WARN] search reply to chat %s failed: %v", req.ChatID, err)
		}
	}
}

// updateLinksDigest обновляет дайджест ссылок на встречи: для каждого
// классифицированного объявления со ссылками запоминаются последние
// ссылки его предмета.
func (p *Pipeline) updateLinksDigest(ctx context.Context, batch []announce.Announcement) error {
	links, err := p.linksStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load links digest: %w", err)
	}

	changed := false
	for _, a := range batch {
		if a.Kind == announce.KindNone || len(a.Links) == 0 {
			continue
		}
		links[a.SubjectName] = a.Links
		changed = true
	}
	if !changed {
		return nil
	}

	return p.linksStore.Save(ctx, links)
}

func (p *Pipeline) validateDeps() error {
	// recipients, condenser, search, links и email опциональны:
	// без них пайплайн деградирует, но остаётся работоспособным.
	switch {
	case p.collector == nil,
		p.ingestor == nil,
		p.classifier == nil,
		p.deadlines == nil,
		p.links == nil,
		p.postponed == nil,
		p.reminders == nil,
		p.formatter == nil,
		p.sender == nil,
		p.stateStore == nil,
		p.clock == nil:
		return ErrNotConfigured
	default:
		return nil
	}
}
