package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/maine/moodle_bot_reminders/internal/announce"
)

const (
	notificationsMethod = "message_popup_get_popup_notifications"
	coursesMethod       = "core_course_get_enrolled_courses_by_timeline_classification"

	// Портал за балансировщиком капризничает без браузерного User-Agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/99.0.7113.93 Safari/537.36"
)

type serviceCall struct {
	Index      int            `json:"index"`
	MethodName string         `json:"methodname"`
	Args       map[string]any `json:"args"`
}

// Session - авторизованная сессия портала. Логин идёт через CAS:
// с формы логина снимается одноразовый токен execution, после POST
// сессионные куки живут в jar, а ключ sesskey для AJAX-вызовов
// выковыривается из HTML личного кабинета.
type Session struct {
	client   *http.Client
	baseURL  string
	loginURL string
	username string
	password string
	sesskey  string
}

// NewSession создаёт неавторизованную сессию.
func NewSession(baseURL, loginURL, username, password string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		loginURL: loginURL,
		username: username,
		password: password,
	}, nil
}

// Login проходит CAS-логин и снимает sesskey. Повторный вызов
// переавторизуется заново.
func (s *Session) Login(ctx context.Context) error {
	page, err := s.getText(ctx, s.loginURL)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}

	execution := findInputValue(page, "execution")
	if execution == "" {
		return fmt.Errorf("execution token not found on login page")
	}

	form := url.Values{
		"username":    {s.username},
		"password":    {s.password},
		"execution":   {execution},
		"_eventId":    {"submit"},
		"geolocation": {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("login status %d", resp.StatusCode)
	}

	dashboard, err := s.getText(ctx, s.baseURL+"/my/")
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	s.sesskey = findInputValue(dashboard, "sesskey")
	if s.sesskey == "" {
		return fmt.Errorf("sesskey not found, login likely rejected")
	}
	return nil
}

// FetchNotifications возвращает сырой JSON ответа с объявлениями.
func (s *Session) FetchNotifications(ctx context.Context, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.callService(ctx, notificationsMethod, map[string]any{
		"limit":  limit,
		"offset": 0,
	})
}

// FetchCourses возвращает сырой JSON ответа со списком курсов.
func (s *Session) FetchCourses(ctx context.Context) ([]byte, error) {
	return s.callService(ctx, coursesMethod, map[string]any{
		"offset":           0,
		"limit":            0,
		"classification":   "all",
		"sort":             "fullname",
		"customfieldname":  "",
		"customfieldvalue": "",
	})
}

func (s *Session) callService(ctx context.Context, method string, args map[string]any) ([]byte, error) {
	if s.sesskey == "" {
		return nil, fmt.Errorf("session not logged in")
	}

	body, err := json.Marshal([]serviceCall{{Index: 0, MethodName: method, Args: args}})
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/lib/ajax/service.php?sesskey=%s&info=%s",
		s.baseURL, url.QueryEscape(s.sesskey), url.QueryEscape(method))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s status %d", method, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *Session) getText(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// findInputValue разбирает HTML и возвращает value первого элемента
// с атрибутом name, равным name.
func findInputValue(page, name string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode {
			var matched bool
			var value string
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					matched = a.Val == name
				case "value":
					value = a.Val
				}
			}
			if matched {
				return value
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if v := walk(c); v != "" {
				return v
			}
		}
		return ""
	}
	return walk(doc)
}

// MoodleCollector реализует app.Collector поверх живого портала.
type MoodleCollector struct {
	session *Session
	limit   int
	clock   func() time.Time
}

// NewMoodleCollector создаёт коллектор. Сессия может быть ещё
// не залогинена: Collect и Subjects логинятся лениво.
func NewMoodleCollector(session *Session, limit int, clock func() time.Time) *MoodleCollector {
	if clock == nil {
		clock = time.Now
	}
	return &MoodleCollector{session: session, limit: limit, clock: clock}
}

// Collect забирает свежие объявления с портала.
func (c *MoodleCollector) Collect(ctx context.Context) ([]announce.RawRecord, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	data, err := c.session.FetchNotifications(ctx, c.limit)
	if err != nil {
		return nil, err
	}
	return parseNotifications(data, c.clock())
}

// Subjects строит маппинг кодов предметов по списку курсов.
func (c *MoodleCollector) Subjects(ctx context.Context) (map[string]string, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	data, err := c.session.FetchCourses(ctx)
	if err != nil {
		return nil, err
	}
	return parseCourses(data)
}

func (c *MoodleCollector) ensureLogin(ctx context.Context) error {
	if c.session.sesskey != "" {
		return nil
	}
	return c.session.Login(ctx)
}
