package participant

import (
	"context"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/internal/store"
	"github.com/rs/zerolog"
)

// Registry 负责参与者的注册与查询。名(first_name)在全体参与者中唯一。
type Registry struct {
	store *store.Store
	log   zerolog.Logger
}

func NewRegistry(s *store.Store) *Registry {
	return &Registry{store: s, log: logging.WithComponent("participant")}
}

// Register 注册一个新参与者
func (r *Registry) Register(ctx context.Context, firstName, lastName, birthDate string) (*store.Participant, error) {
	const op = "participant.Register"
	if err := store.ValidateDate(op, birthDate); err != nil {
		return nil, err
	}

	if _, err := r.store.Participants.FindByFirstName(ctx, firstName); err == nil {
		return nil, apperr.Newf(apperr.KindAlreadyExists, op, "参与者 %s 已存在", firstName)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		r.log.Error().Err(err).Str("first_name", firstName).Msg("查询参与者失败")
		return nil, err
	}

	p := &store.Participant{FirstName: firstName, LastName: lastName, BirthDate: birthDate}
	if err := r.store.Participants.Insert(ctx, p); err != nil {
		if apperr.Is(err, apperr.KindAlreadyExists) {
			return nil, &apperr.Error{Kind: apperr.KindAlreadyExists, Op: op, Msg: "参与者 " + firstName + " 已存在", Err: err}
		}
		r.log.Error().Err(err).Str("first_name", firstName).Msg("注册参与者失败")
		return nil, err
	}

	r.log.Info().Uint("user_id", p.ID).Str("first_name", firstName).Msg("参与者已注册")
	return p, nil
}

// Get 按ID读取参与者
func (r *Registry) Get(ctx context.Context, id uint) (*store.Participant, error) {
	p, err := r.store.Participants.Get(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Newf(apperr.KindNotFound, "participant.Get", "参与者 %d 不存在", id)
	}
	return p, err
}

// List 返回全部参与者
func (r *Registry) List(ctx context.Context) ([]store.Participant, error) {
	return r.store.Participants.List(ctx)
}
