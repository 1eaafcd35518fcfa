package llm

import (
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Pool hands out one OpenAI-compatible client per API key. Keys arrive
// per-request, so clients are reused across requests with the same key up
// to a bound, after which the pool resets. This replaces process-wide
// client globals with an injectable object that tests can construct with
// fake keys.
type Pool struct {
	baseURL string

	mu      sync.Mutex
	clients map[string]*openai.Client
	max     int
}

const defaultPoolSize = 64

func NewPool(baseURL string) *Pool {
	return &Pool{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		clients: make(map[string]*openai.Client),
		max:     defaultPoolSize,
	}
}

func (p *Pool) client(apiKey string) *openai.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[apiKey]; ok {
		return c
	}
	if len(p.clients) >= p.max {
		p.clients = make(map[string]*openai.Client)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = p.baseURL
	c := openai.NewClientWithConfig(cfg)
	p.clients[apiKey] = c
	return c
}

// Size reports how many distinct keys currently have a client.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
