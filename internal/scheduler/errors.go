package scheduler

import "errors"

// ErrInvalidConfiguration 表示小组数量、小组人数或轮数等参数不合法
var ErrInvalidConfiguration = errors.New("scheduler: 参数不合法")
