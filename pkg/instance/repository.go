// Package instance is the short-lived cache for staged edit sessions.
package instance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

const instanceKeyPrefix = "in:"

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(client *redis.Client, ttl time.Duration) *repository {
	return &repository{client: client, ttl: ttl}
}

type repository struct {
	client *redis.Client
	ttl    time.Duration
}

func (r repository) exists(instanceID string) (bool, error) {
	count, err := r.client.Exists(instanceKeyPrefix + instanceID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check instance %q: %v", instanceID, err)
	}
	return count > 0, nil
}

func (r repository) save(instance model.Instance) error {
	attachments, err := json.Marshal(instance.InstanceAttachments)
	if err != nil {
		return fmt.Errorf("failed to encode instance attachments: %v", err)
	}

	key := instanceKeyPrefix + instance.InstanceID
	fields := map[string]interface{}{
		"openRosaServer":      instance.OpenRosaServer,
		"openRosaId":          instance.OpenRosaID,
		"instance":            instance.Instance,
		"returnUrl":           instance.ReturnURL,
		"instanceAttachments": string(attachments),
	}

	pipe := r.client.TxPipeline()
	pipe.HMSet(key, fields)
	pipe.Expire(key, r.ttl)
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("failed to cache instance %q: %v", instance.InstanceID, err)
	}
	return nil
}

func (r repository) find(instanceID string) (*model.Instance, error) {
	fields, err := r.client.HGetAll(instanceKeyPrefix + instanceID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instance %q: %v", instanceID, err)
	}
	if len(fields) == 0 {
		return nil, errdef.NewNotFound("instance %q not present, it may have expired", instanceID)
	}

	instance := &model.Instance{
		InstanceID:     instanceID,
		OpenRosaServer: fields["openRosaServer"],
		OpenRosaID:     fields["openRosaId"],
		Instance:       fields["instance"],
		ReturnURL:      fields["returnUrl"],
	}
	if raw := fields["instanceAttachments"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &instance.InstanceAttachments); err != nil {
			return nil, fmt.Errorf("failed to decode attachments of instance %q: %v", instanceID, err)
		}
	}
	return instance, nil
}

func (r repository) delete(instanceID string) error {
	if err := r.client.Del(instanceKeyPrefix + instanceID).Err(); err != nil {
		return fmt.Errorf("failed to delete instance %q: %v", instanceID, err)
	}
	return nil
}
