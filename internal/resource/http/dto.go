package http

import (
	"time"

	"github.com/orsched/or-scheduling-backend/internal/pkg/request"
	"github.com/orsched/or-scheduling-backend/internal/resource"
)

// HoursRangeBody is one open range of a weekly template, minutes since midnight.
type HoursRangeBody struct {
	Open  int `json:"open" binding:"min=0,max=1439"`
	Close int `json:"close" binding:"min=1,max=1440"`
}

type CreateResourceRequest struct {
	Kind string `json:"kind" binding:"required,oneof=room surgeon anesthesiologist"`
	Name string `json:"name" binding:"required"`
	// Hours maps weekday (0 = Sunday ... 6 = Saturday) to open ranges.
	Hours map[int][]HoursRangeBody `json:"operating_hours"`
}

func (r *CreateResourceRequest) toWeeklyHours() resource.WeeklyHours {
	hours := resource.WeeklyHours{}
	for weekday, ranges := range r.Hours {
		day := time.Weekday(weekday % 7)
		for _, hr := range ranges {
			hours[day] = append(hours[day], resource.HoursRange{Open: hr.Open, Close: hr.Close})
		}
	}
	return hours
}

type ListResourcesRequest struct {
	request.ListParams
	Kind string `form:"kind" binding:"omitempty,oneof=room surgeon anesthesiologist"`
}

type ResourceResponse struct {
	ID        string                   `json:"id"`
	Kind      string                   `json:"kind"`
	Name      string                   `json:"name"`
	Hours     map[int][]HoursRangeBody `json:"operating_hours"`
	CreatedAt time.Time                `json:"created_at"`
}

func NewResourceResponse(res *resource.Resource) ResourceResponse {
	hours := make(map[int][]HoursRangeBody, len(res.Hours))
	for day, ranges := range res.Hours {
		for _, hr := range ranges {
			hours[int(day)] = append(hours[int(day)], HoursRangeBody{Open: hr.Open, Close: hr.Close})
		}
	}
	return ResourceResponse{
		ID:        res.ID,
		Kind:      string(res.Kind),
		Name:      res.Name,
		Hours:     hours,
		CreatedAt: res.CreatedAt,
	}
}

type WindowResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type WindowsResponse struct {
	Date    string           `json:"date"`
	Windows []WindowResponse `json:"windows"`
}
