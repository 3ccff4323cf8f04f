package logout

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-auth-session/auth"
	"github.com/jrsteele09/go-auth-session/session"
	"github.com/rs/zerolog/log"
)

const DefaultPostLogoutPath = "/logged-out"

// Authenticator is the part of the auth manager the coordinator depends on.
type Authenticator interface {
	PersistedSession(ctx context.Context) (*session.Session, error)
	InitiateSignout(ctx context.Context, opts auth.SignoutOptions) error
}

type Notifier interface {
	Notify(ctx context.Context) error
}

// Task is one isolated cleanup step of a logout.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Coordinator tears down every piece of local state and then ends the
// session at the identity provider.
type Coordinator struct {
	auth          Authenticator
	notifier      Notifier
	postLogoutURL string
	tasks         []Task
}

func NewCoordinator(auth Authenticator, notifier Notifier, postLogoutURL string, tasks ...Task) *Coordinator {
	return &Coordinator{
		auth:          auth,
		notifier:      notifier,
		postLogoutURL: postLogoutURL,
		tasks:         tasks,
	}
}

// HardLogout runs every cleanup task and finishes with the end-session
// redirect. Cleanup failures are logged and never stop the redirect; only
// the redirect's own outcome is returned, navigation.ErrRedirected on
// success.
func (c *Coordinator) HardLogout(ctx context.Context) error {
	// The hint must be read before any task can purge the session
	var idTokenHint string
	sess, err := c.auth.PersistedSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read session for logout hint")
	} else if sess != nil {
		idTokenHint = sess.IDToken
	}

	for _, task := range c.tasks {
		runTask(ctx, task)
	}

	if c.notifier != nil {
		runTask(ctx, Task{Name: "notify-backend", Run: c.notifier.Notify})
	}

	log.Info().Bool("id_token_hint", idTokenHint != "").Msg("Local state cleared, ending provider session")
	return c.auth.InitiateSignout(ctx, auth.SignoutOptions{
		IDTokenHint:      idTokenHint,
		PostLogoutTarget: c.postLogoutURL,
	})
}

func runTask(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("task", task.Name).Str("panic", fmt.Sprint(r)).Msg("Logout task panicked")
		}
	}()

	if err := task.Run(ctx); err != nil {
		log.Warn().Err(err).Str("task", task.Name).Msg("Logout task failed")
	}
}
