package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueViolation 判断错误是否来自唯一约束冲突。
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// 兜底：未开启 TranslateError 的连接（例如 sqlite 测试库）只返回文本。
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// IsCheckViolation 判断错误是否来自 CHECK 约束。
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint failed")
}

// ContainsPattern 将用户输入转义为大小写无关的 LIKE 子串模式，配合 LikeEscape 使用。
func ContainsPattern(s string) string {
	return "%" + escapeLike(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// JSONElementPattern 匹配 JSON 字符串数组中完全相等的元素（大小写无关）。
func JSONElementPattern(s string) string {
	return `%"` + escapeLike(strings.ToLower(strings.TrimSpace(s))) + `"%`
}

// LikeEscape 是 ContainsPattern 生成模式所需的 ESCAPE 子句。
const LikeEscape = ` ESCAPE '\'`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeReplacer.Replace(s) }
