package storage

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stayloop/stays-service/internal/utils"
)

// ImageStore abstracts the hosted image provider so services and tests
// never depend on Cloudinary directly.
type ImageStore interface {
	// Upload pushes a base64-encoded image (with or without a data: prefix)
	// and returns the URL it will be served from.
	Upload(ctx context.Context, base64Image, publicID string) (string, error)
	// Delete removes a previously uploaded image by its served URL.
	Delete(ctx context.Context, imageURL string) error
}

var ErrNotConfigured = errors.New("image store not configured")

const cloudinaryBase = "https://api.cloudinary.com/v1_1"

// CloudinaryStore uploads via Cloudinary's signed REST API. Requests are
// form posts authenticated with an SHA1 signature over public_id and
// timestamp.
type CloudinaryStore struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	httpClient *http.Client
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) *CloudinaryStore {
	return &CloudinaryStore{
		cloudName:  cloudName,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		folder:     folder,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *CloudinaryStore) configured() bool {
	return s.cloudName != "" && s.apiKey != "" && s.apiSecret != ""
}

func (s *CloudinaryStore) publicID(id string) string {
	if s.folder != "" {
		return s.folder + "/" + id
	}
	return id
}

func (s *CloudinaryStore) sign(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, s.apiSecret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(payload)))
}

func (s *CloudinaryStore) Upload(ctx context.Context, base64Image, publicID string) (string, error) {
	if !s.configured() {
		return "", ErrNotConfigured
	}
	if base64Image == "" {
		return "", errors.New("empty image payload")
	}

	// Strip a data:image/...;base64, prefix if the client sent one.
	payload := base64Image
	if i := strings.Index(base64Image, ","); i != -1 {
		payload = base64Image[i+1:]
	}

	fullID := s.publicID(publicID)
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	form := url.Values{}
	form.Add("file", "data:image/jpeg;base64,"+payload)
	form.Add("api_key", s.apiKey)
	form.Add("public_id", fullID)
	form.Add("timestamp", timestamp)
	form.Add("signature", s.sign(fullID, timestamp))

	var res struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := s.post(ctx, s.cloudName+"/image/upload", form, &res); err != nil {
		return "", err
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", res.Error.Message)
	}

	served := res.SecureURL
	if served == "" {
		served = res.URL
	}
	if served == "" {
		return "", errors.New("cloudinary: no URL in upload response")
	}

	utils.Logger.Debugf("Uploaded image %s", fullID)
	return served, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, imageURL string) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	if !strings.Contains(imageURL, "res.cloudinary.com") {
		return fmt.Errorf("not a cloudinary URL: %s", imageURL)
	}

	// .../image/upload/v{version}/{folder}/{public_id}.{ext}
	parts := strings.Split(imageURL, "/")
	last := parts[len(parts)-1]
	fullID := s.publicID(strings.SplitN(last, ".", 2)[0])

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form := url.Values{}
	form.Add("public_id", fullID)
	form.Add("api_key", s.apiKey)
	form.Add("timestamp", timestamp)
	form.Add("signature", s.sign(fullID, timestamp))

	var res struct {
		Result string `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := s.post(ctx, s.cloudName+"/image/destroy", form, &res); err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	// "not found" is fine: the row is going away either way.
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary: unexpected destroy result %q", res.Result)
	}

	utils.Logger.Debugf("Deleted image %s", fullID)
	return nil
}

func (s *CloudinaryStore) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		cloudinaryBase+"/"+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cloudinary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
