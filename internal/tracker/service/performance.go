package service

import (
	"fmt"
	"time"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
)

// Clock 提供当前时间，测试中注入固定日期
type Clock func() time.Time

// dateOf 取当地日历日并统一落到UTC零点，日粒度比较与时区无关
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sameDate 判断两个可空日期是否同一天
func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return dateOf(*a).Equal(dateOf(*b))
}

// CasePerformance 计算案件考核标签
func CasePerformance(status string, dueDate, completedDate *time.Time, overdueTasks int64) string {
	switch status {
	case entity.StatusCompleted:
		if dueDate != nil && completedDate != nil && dateOf(*completedDate).After(dateOf(*dueDate)) {
			return entity.PerfCompletedLate
		}
		return entity.PerfCompletedOnTime
	case entity.StatusNotStarted, entity.StatusOnHold:
		return entity.PerfPending
	case entity.StatusInProgress:
		if overdueTasks > 0 {
			return entity.PerfOverdue
		}
		return entity.PerfOnTime
	}
	return entity.PerfPending
}

// TaskPerformance 计算任务考核标签，today 为评估基准日
func TaskPerformance(status string, dueDate, completedDate *time.Time, today time.Time) string {
	day := dateOf(today)
	switch status {
	case entity.StatusCompleted:
		if dueDate != nil && completedDate != nil && dateOf(*completedDate).After(dateOf(*dueDate)) {
			return entity.PerfCompletedLate
		}
		return entity.PerfCompletedOnTime
	case entity.StatusNotStarted, entity.StatusOnHold:
		if dueDate != nil && dateOf(*dueDate).Before(day) {
			return entity.PerfOverdue
		}
		return entity.PerfPending
	case entity.StatusInProgress:
		if dueDate != nil && dateOf(*dueDate).Before(day) {
			return entity.PerfOverdue
		}
		return entity.PerfOnTime
	}
	return entity.PerfPending
}

// DueDateDisplay 到期日显示：有日期显示日期，只有偏移显示 "+ N Days"，否则 "N/A"
func DueDateDisplay(dueDate *time.Time, dayOffset *int) string {
	if dueDate != nil {
		return dueDate.Format("2006-01-02")
	}
	if dayOffset != nil {
		return fmt.Sprintf("+ %d Days", *dayOffset)
	}
	return "N/A"
}
