package store

import (
	"context"
	"errors"
	"strings"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 为单个实体提供通用的增删查改，具体的查询方法由各实体的Store补充。
type Repository[T any] struct {
	db     *gorm.DB
	entity string
}

func newRepository[T any](db *gorm.DB, entity string) Repository[T] {
	return Repository[T]{db: db, entity: entity}
}

// Get 按主键读取，不存在时返回 KindNotFound
func (r Repository[T]) Get(ctx context.Context, id uint) (*T, error) {
	var v T
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, translate(r.entity+".Get", err)
	}
	return &v, nil
}

// List 按主键顺序返回全部记录
func (r Repository[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: clause.PrimaryKey}}).
		Find(&out).Error
	if err != nil {
		return nil, translate(r.entity+".List", err)
	}
	return out, nil
}

// Insert 写入一条新记录，唯一约束冲突时返回 KindAlreadyExists
func (r Repository[T]) Insert(ctx context.Context, v *T) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return translate(r.entity+".Insert", err)
	}
	return nil
}

// Update 保存一条已存在记录的全部字段
func (r Repository[T]) Update(ctx context.Context, v *T) error {
	if err := r.db.WithContext(ctx).Save(v).Error; err != nil {
		return translate(r.entity+".Update", err)
	}
	return nil
}

// translate 把数据库错误转换为 apperr 的错误种类
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Msg: "记录不存在", Err: err}
	case IsDuplicate(err):
		return &apperr.Error{Kind: apperr.KindAlreadyExists, Op: op, Msg: "记录已存在", Err: err}
	case isForeignKeyViolation(err):
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Msg: "关联记录不存在", Err: err}
	default:
		return apperr.Wrap(apperr.KindPersistenceFailure, op, err)
	}
}

// IsDuplicate 判断是否为唯一约束冲突。
// 开启 TranslateError 后驱动会返回 gorm.ErrDuplicatedKey，字符串匹配用于未翻译的驱动错误。
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

func isForeignKeyViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "violates foreign key constraint")
}
