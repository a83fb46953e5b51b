package bitable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"stock-master/pkg/types"
)

// ErrRecordNotFound 表中没有匹配的记录
var ErrRecordNotFound = errors.New("记录不存在")

const defaultBaseURL = "https://open.feishu.cn/open-apis"

// TokenSource 提供访问令牌
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken 外部签发的固定令牌
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("未配置飞书访问令牌")
	}
	return string(t), nil
}

// Fields 记录字段，键为列名
type Fields map[string]interface{}

// Record 一条多维表格记录
type Record struct {
	RecordID string `json:"record_id"`
	Fields   Fields `json:"fields"`
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type listData struct {
	Items     []Record `json:"items"`
	HasMore   bool     `json:"has_more"`
	PageToken string   `json:"page_token"`
}

type recordData struct {
	Record Record `json:"record"`
}

// Client 多维表格记录接口
type Client struct {
	baseURL    string
	appToken   string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(cfg types.FeishuConfig, tokens TokenSource) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		appToken: cfg.AppToken,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) recordsPath(tableID string) string {
	return fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records", url.PathEscape(c.appToken), url.PathEscape(tableID))
}

// do 发送请求，code 不为 0 视为失败，成功时把 data 解到 out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("获取访问令牌失败: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("解析响应失败(HTTP %d): %w", resp.StatusCode, err)
	}
	if result.Code != 0 {
		return fmt.Errorf("飞书API错误 [%d]: %s", result.Code, result.Msg)
	}

	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return nil
}

// ListRecords 分页读取表中全部记录
func (c *Client) ListRecords(ctx context.Context, tableID string) ([]Record, error) {
	var records []Record
	pageToken := ""

	for {
		query := url.Values{"page_size": {"100"}}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		var page listData
		if err := c.do(ctx, http.MethodGet, c.recordsPath(tableID), query, nil, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Items...)

		if !page.HasMore || page.PageToken == "" {
			break
		}
		pageToken = page.PageToken
	}

	zap.L().Debug("读取多维表格记录", zap.String("table", tableID), zap.Int("count", len(records)))
	return records, nil
}

// FindRecord 按字段值查找第一条记录
func (c *Client) FindRecord(ctx context.Context, tableID, field, value string) (Record, error) {
	records, err := c.ListRecords(ctx, tableID)
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if fieldText(r.Fields[field]) == value {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s=%s", ErrRecordNotFound, field, value)
}

func (c *Client) CreateRecord(ctx context.Context, tableID string, fields Fields) (Record, error) {
	var data recordData
	err := c.do(ctx, http.MethodPost, c.recordsPath(tableID), nil, map[string]interface{}{"fields": fields}, &data)
	return data.Record, err
}

func (c *Client) UpdateRecord(ctx context.Context, tableID, recordID string, fields Fields) (Record, error) {
	var data recordData
	path := c.recordsPath(tableID) + "/" + url.PathEscape(recordID)
	err := c.do(ctx, http.MethodPut, path, nil, map[string]interface{}{"fields": fields}, &data)
	return data.Record, err
}

func (c *Client) DeleteRecord(ctx context.Context, tableID, recordID string) error {
	path := c.recordsPath(tableID) + "/" + url.PathEscape(recordID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// fieldText 文本字段可能是字符串，也可能是富文本片段数组
func fieldText(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		var b strings.Builder
		for _, seg := range val {
			if m, ok := seg.(map[string]interface{}); ok {
				if text, ok := m["text"].(string); ok {
					b.WriteString(text)
				}
			}
		}
		return b.String()
	default:
		return ""
	}
}
