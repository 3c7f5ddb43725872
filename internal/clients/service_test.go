package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	clients map[int64]*Client
	nextID  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{clients: make(map[int64]*Client), nextID: 1}
}

func (m *mockRepository) List(ctx context.Context, search string) ([]Client, error) {
	var out []Client
	for _, c := range m.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockRepository) Create(ctx context.Context, c *Client) (*Client, error) {
	c.ID = m.nextID
	m.nextID++
	m.clients[c.ID] = c
	return c, nil
}

func (m *mockRepository) Update(ctx context.Context, c *Client) (*Client, error) {
	if _, ok := m.clients[c.ID]; !ok {
		return nil, ErrNotFound
	}
	m.clients[c.ID] = c
	return c, nil
}

func TestCreateNormalizesFields(t *testing.T) {
	svc := NewService(newMockRepository())

	c, err := svc.Create(context.Background(), Client{Name: "  Studio Nord  ", Email: "Hello@Studio.Example"})
	require.NoError(t, err)
	assert.Equal(t, "Studio Nord", c.Name)
	assert.Equal(t, "hello@studio.example", c.Email)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Create(context.Background(), Client{Name: "   "})
	assert.Error(t, err)
}

func TestUpdateMissingClient(t *testing.T) {
	svc := NewService(newMockRepository())
	_, err := svc.Update(context.Background(), Client{ID: 99, Name: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}
