// Package survey is the registry mapping remote forms to short public IDs.
package survey

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

const (
	idKeyPrefix          = "id:"
	openRosaKeyPrefix    = "or:"
	surveyCounterKey     = "survey:counter"
	submissionCounterKey = "submission:counter"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(client *redis.Client) *repository {
	return &repository{client}
}

type repository struct {
	client *redis.Client
}

// findID returns the enketo ID mapped to openRosaKey, or the empty string if
// the key has never been seen.
func (r repository) findID(openRosaKey string) (string, error) {
	id, err := r.client.Get(openRosaKeyPrefix + openRosaKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up survey key: %v", err)
	}
	if id == "" {
		return "", errdef.NewIncomplete("id mapping for survey key %q is empty", openRosaKey)
	}
	return id, nil
}

// create allocates the next counter value and persists both the id record and
// the reverse key mapping in one transaction.
func (r repository) create(openRosaKey string, s model.Survey) (string, error) {
	counter, err := r.client.Incr(surveyCounterKey).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment survey counter: %v", err)
	}
	id := encodeID(counter)

	fields := map[string]interface{}{
		"openRosaServer": s.OpenRosaServer,
		"openRosaId":     s.OpenRosaID,
		"submissions":    0,
		"launchDate":     time.Now().UTC().Format(time.RFC3339),
		"active":         "true",
		"theme":          s.Theme,
	}

	pipe := r.client.TxPipeline()
	pipe.HMSet(idKeyPrefix+id, fields)
	pipe.Set(openRosaKeyPrefix+openRosaKey, id, 0)
	if _, err := pipe.Exec(); err != nil {
		return "", fmt.Errorf("failed to persist survey %q: %v", id, err)
	}
	return id, nil
}

// updateProperties writes only the mutable fields onto an existing record.
func (r repository) updateProperties(id string, s model.Survey) error {
	fields := map[string]interface{}{
		"active": strconv.FormatBool(s.Active),
		"theme":  s.Theme,
	}
	if s.OpenRosaServer != "" {
		fields["openRosaServer"] = s.OpenRosaServer
	}

	if err := r.client.HMSet(idKeyPrefix+id, fields).Err(); err != nil {
		return fmt.Errorf("failed to update survey %q: %v", id, err)
	}
	return nil
}

func (r repository) find(id string) (*model.Survey, error) {
	fields, err := r.client.HGetAll(idKeyPrefix + id).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch survey %q: %v", id, err)
	}
	if len(fields) == 0 {
		err := errdef.NewNotFound("survey %q not found", id)
		return nil, errdef.WithTranslation(err, "error.surveyidnotfound", nil)
	}
	if fields["active"] == "false" {
		err := errdef.NewNotFound("survey %q is not active", id)
		return nil, errdef.WithTranslation(err, "error.surveyidnotactive", nil)
	}
	if fields["openRosaId"] == "" || fields["openRosaServer"] == "" {
		return nil, errdef.NewIncomplete("survey record %q is missing required fields", id)
	}

	return surveyFromFields(id, fields), nil
}

func surveyFromFields(id string, fields map[string]string) *model.Survey {
	submissions, _ := strconv.ParseInt(fields["submissions"], 10, 64)
	launchDate, _ := time.Parse(time.RFC3339, fields["launchDate"])
	lastAccessed, _ := time.Parse(time.RFC3339, fields["lastAccessed"])

	return &model.Survey{
		EnketoID:       id,
		OpenRosaServer: fields["openRosaServer"],
		OpenRosaID:     fields["openRosaId"],
		Theme:          fields["theme"],
		Active:         fields["active"] != "false",
		Submissions:    submissions,
		LaunchDate:     launchDate,
		LastAccessed:   lastAccessed,
	}
}

func (r repository) touchLastAccessed(id string) error {
	return r.client.HSet(idKeyPrefix+id, "lastAccessed", time.Now().UTC().Format(time.RFC3339)).Err()
}

// addSubmission bumps the global submission counter and the per-survey count.
func (r repository) addSubmission(id string) error {
	pipe := r.client.TxPipeline()
	pipe.Incr(submissionCounterKey)
	pipe.HIncrBy(idKeyPrefix+id, "submissions", 1)
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("failed to count submission for survey %q: %v", id, err)
	}
	return nil
}

// scanServerKeys collects all openRosaKey entries belonging to server.
func (r repository) scanServerKeys(server string) ([]string, error) {
	pattern := openRosaKeyPrefix + model.CleanServerURL(server) + "*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan survey keys: %v", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (r repository) countForServer(server string) (int, error) {
	keys, err := r.scanServerKeys(server)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (r repository) listForServer(server string) ([]*model.Survey, error) {
	keys, err := r.scanServerKeys(server)
	if err != nil {
		return nil, err
	}

	surveys := make([]*model.Survey, 0, len(keys))
	for _, key := range keys {
		id, err := r.client.Get(key).Result()
		if err == redis.Nil || id == "" {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve survey key %q: %v", key, err)
		}

		fields, err := r.client.HGetAll(idKeyPrefix + id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch survey %q: %v", id, err)
		}
		if len(fields) == 0 || fields["active"] == "false" {
			continue
		}
		surveys = append(surveys, surveyFromFields(id, fields))
	}
	return surveys, nil
}
