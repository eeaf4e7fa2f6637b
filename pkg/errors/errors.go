package errors

import "errors"

// ── 存储层哨兵错误 ──
// Repository 将驱动错误翻译为以下值，Service 层只依赖这些值做分支判断

// ErrDuplicateCode 兑换码唯一索引冲突：并发抽奖生成了相同的兑换码
var ErrDuplicateCode = errors.New("兑换码已存在")
