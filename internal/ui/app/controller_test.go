package app

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-console/storefront/internal/api"
	"github.com/storefront-console/storefront/internal/auth"
	"github.com/storefront-console/storefront/internal/config"
	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/logging"
	"github.com/storefront-console/storefront/internal/ui/detail"
	"github.com/storefront-console/storefront/internal/ui/products"
	"github.com/storefront-console/storefront/internal/ui/uitest"
)

type countingObserver struct {
	labels []string
}

func (o *countingObserver) ObserveOperation(label string, _ apperrors.Category, _ time.Duration, _ error) {
	o.labels = append(o.labels, label)
}

func newController(t *testing.T, store *uitest.FakeStore, tokens *auth.MemoryStore) (*Controller, *auth.Session, *countingObserver) {
	t.Helper()
	logger, err := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Writer: io.Discard})
	require.NoError(t, err)

	session := auth.NewSession(tokens, "memory").WithLogger(logger)
	observer := &countingObserver{}
	c := NewController(Deps{
		Context:  context.Background(),
		Client:   store,
		Session:  session,
		Theme:    config.ThemeFor("github"),
		Observer: observer,
		Logger:   logger,
	})
	return c, session, observer
}

// pump feeds msgs back into c until no more are produced.
func pump(c *Controller, cmd tea.Cmd) {
	queue := uitest.Drain(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		_, next := c.Update(msg)
		queue = append(queue, uitest.Drain(next)...)
	}
}

func TestStartsOnLoginWithoutStoredToken(t *testing.T) {
	c, _, _ := newController(t, &uitest.FakeStore{}, auth.NewMemoryStore())
	assert.Equal(t, ViewChecking, c.Current())
	assert.Contains(t, c.View(), "Checking session")

	pump(c, c.Init())
	assert.Equal(t, ViewLogin, c.Current())
	assert.Contains(t, c.View(), "Sign in")
}

func TestStartsOnProductsWithStoredToken(t *testing.T) {
	tokens := auth.NewMemoryStore()
	require.NoError(t, tokens.Store(context.Background(), auth.TokenKey, "opaque"))
	store := &uitest.FakeStore{Products: api.DefaultMockProducts()}

	c, session, observer := newController(t, store, tokens)
	pump(c, c.Init())

	assert.Equal(t, ViewProducts, c.Current())
	assert.True(t, session.Active())
	assert.Equal(t, 1, store.ListCalls)
	assert.Equal(t, []string{products.OperationLabel}, observer.labels)
}

func TestLoginFlowReachesProducts(t *testing.T) {
	store := &uitest.FakeStore{Products: api.DefaultMockProducts()}
	c, session, _ := newController(t, store, auth.NewMemoryStore())
	pump(c, c.Init())

	var model tea.Model = c
	model = uitest.Type(model, "mor_2314")
	model.Update(uitest.Key("tab"))
	uitest.Type(model, "83r5^_")
	_, cmd := c.Update(uitest.Key("enter"))
	pump(c, cmd)

	assert.Equal(t, ViewProducts, c.Current())
	assert.True(t, session.Active())
	assert.Contains(t, c.View(), "Fjallraven")
}

func TestNavigateDetailAndLogout(t *testing.T) {
	tokens := auth.NewMemoryStore()
	require.NoError(t, tokens.Store(context.Background(), auth.TokenKey, "opaque"))
	store := &uitest.FakeStore{Products: api.DefaultMockProducts()}
	c, session, _ := newController(t, store, tokens)
	pump(c, c.Init())

	_, cmd := c.Update(uitest.Key("enter"))
	pump(c, cmd)
	assert.Equal(t, ViewDetail, c.Current())
	assert.Equal(t, 1, store.ProductCalls)

	_, cmd = c.Update(uitest.Key("esc"))
	pump(c, cmd)
	assert.Equal(t, ViewProducts, c.Current())
	assert.Equal(t, 1, store.ListCalls, "returning from detail keeps the loaded list")

	_, cmd = c.Update(uitest.Key("l"))
	pump(c, cmd)
	assert.Equal(t, ViewLogin, c.Current())
	assert.False(t, session.Active())
	assert.False(t, tokens.Exists(context.Background(), auth.TokenKey))
}

func TestQuitKeys(t *testing.T) {
	c, _, _ := newController(t, &uitest.FakeStore{}, auth.NewMemoryStore())
	pump(c, c.Init())

	_, cmd := c.Update(uitest.Key("q"))
	if cmd != nil {
		_, isQuit := cmd().(tea.QuitMsg)
		assert.False(t, isQuit, "q is text on the login screen")
	}

	_, cmd = c.Update(uitest.Key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLateRefreshDoesNotReplaceNewerDetail(t *testing.T) {
	tokens := auth.NewMemoryStore()
	require.NoError(t, tokens.Store(context.Background(), auth.TokenKey, "opaque"))
	release := make(chan struct{})
	store := &uitest.FakeStore{Products: api.DefaultMockProducts()}
	c, _, _ := newController(t, store, tokens)
	pump(c, c.Init())

	list := c.products.(*products.Model).Visible()
	require.GreaterOrEqual(t, len(list), 2)
	first, second := list[0], list[1]
	store.BeforeProduct = func(id int) {
		if id == first.ID {
			<-release
		}
	}

	_, cmd := c.Update(uitest.Key("enter"))
	opened := uitest.Drain(cmd)
	require.Len(t, opened, 1)
	_, refreshFirst := c.Update(opened[0])
	firstHandler := c.detail.(*detail.Model).Handler()

	late := make(chan []tea.Msg, 1)
	go func() { late <- uitest.Drain(refreshFirst) }()
	require.Eventually(t, firstHandler.Busy, time.Second, time.Millisecond)

	_, cmd = c.Update(uitest.Key("esc"))
	pump(c, cmd)
	require.Equal(t, ViewProducts, c.Current())
	c.Update(uitest.Key("down"))
	_, cmd = c.Update(uitest.Key("enter"))
	pump(c, cmd)

	shown := c.detail.(*detail.Model)
	require.Equal(t, ViewDetail, c.Current())
	assert.Equal(t, second.ID, shown.Product().ID)
	assert.Nil(t, shown.Handler().CurrentError())
	assert.Equal(t, 1, store.ProductCalls, "the second product refreshes while the first is in flight")

	close(release)
	for _, msg := range <-late {
		c.Update(msg)
	}

	assert.Equal(t, second.ID, c.detail.(*detail.Model).Product().ID)
	assert.Contains(t, c.View(), second.Title)
	assert.NotContains(t, c.View(), "Fjallraven")
	assert.False(t, firstHandler.Busy())
}

func TestLateListFromPreviousSessionIsDropped(t *testing.T) {
	tokens := auth.NewMemoryStore()
	require.NoError(t, tokens.Store(context.Background(), auth.TokenKey, "opaque"))
	all := api.DefaultMockProducts()
	store := &uitest.FakeStore{Products: all}
	c, _, _ := newController(t, store, tokens)
	pump(c, c.Init())

	_, reload := c.Update(tea.KeyMsg{Type: tea.KeyF5})
	require.NotNil(t, reload)

	_, cmd := c.Update(uitest.Key("l"))
	pump(c, cmd)
	require.Equal(t, ViewLogin, c.Current())

	uitest.Type(c, "mor_2314")
	c.Update(uitest.Key("tab"))
	uitest.Type(c, "83r5^_")
	_, cmd = c.Update(uitest.Key("enter"))
	pump(c, cmd)
	require.Equal(t, ViewProducts, c.Current())
	require.Len(t, c.products.(*products.Model).Visible(), len(all))

	store.Products = all[:1]
	pump(c, reload)

	assert.Len(t, c.products.(*products.Model).Visible(), len(all))
}
