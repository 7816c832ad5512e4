package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	startedJSON  = []byte(`{"type":"started"}`)
	finishedJSON = []byte(`{"type":"finished"}`)
)

// ToJSON encodes a lifecycle event with a "type" discriminator.
func ToJSON(event Event) ([]byte, error) {
	switch e := event.(type) {
	case Started:
		return e.MarshalJSON()
	case Finished:
		return e.MarshalJSON()
	default:
		panic(fmt.Sprintf("unknown event type: %T", event))
	}
}

// FromJSON decodes an event encoded by ToJSON. Input, output and response
// payloads come back as generic JSON values, errors as plain errors carrying
// the original message.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch tpe := gjson.GetBytes(data, "type").String(); tpe {
	case "started":
		var e Started
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	case "finished":
		var e Finished
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", tpe)
	}
}

func (e Started) MarshalJSON() ([]byte, error) {
	return marshalCommon(startedJSON, e.FunctionType, e.Metadata, e.Settings, e.Input)
}

func (e *Started) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "started"); err != nil {
		return err
	}
	ft, meta, settings, input, err := unmarshalCommon(data)
	if err != nil {
		return err
	}
	*e = Started{FunctionType: ft, Metadata: meta, Settings: settings, Input: input}
	return nil
}

func (e Finished) MarshalJSON() ([]byte, error) {
	result, err := marshalCommon(finishedJSON, e.FunctionType, e.Metadata, e.Settings, e.Input)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "result.status", string(e.Status()))
	if err != nil {
		return nil, err
	}

	switch r := e.Result.(type) {
	case Success:
		if result, err = setValue(result, "result.value", r.Output); err != nil {
			return nil, err
		}
		if result, err = setValue(result, "result.response", r.Response); err != nil {
			return nil, err
		}
		if r.Usage != nil {
			if result, err = setValue(result, "result.usage", r.Usage); err != nil {
				return nil, err
			}
		}
	case Failure:
		if r.Err != nil {
			if result, err = sjson.SetBytes(result, "result.error", r.Err.Error()); err != nil {
				return nil, err
			}
		}
	case Aborted:
	default:
		panic(fmt.Sprintf("unknown outcome type: %T", e.Result))
	}
	return result, nil
}

func (e *Finished) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "finished"); err != nil {
		return err
	}
	ft, meta, settings, input, err := unmarshalCommon(data)
	if err != nil {
		return err
	}
	if meta.DurationInMs == nil {
		return fmt.Errorf("missing required field 'metadata.durationInMs'")
	}

	status := gjson.GetBytes(data, "result.status")
	if !status.Exists() {
		return fmt.Errorf("missing required field 'result.status'")
	}

	var outcome Outcome
	switch Status(status.String()) {
	case StatusSuccess:
		success := Success{
			Output:   gjson.GetBytes(data, "result.value").Value(),
			Response: gjson.GetBytes(data, "result.response").Value(),
		}
		if raw := gjson.GetBytes(data, "result.usage"); raw.Exists() {
			var usage Usage
			if err := json.Unmarshal([]byte(raw.Raw), &usage); err != nil {
				return fmt.Errorf("invalid result usage: %w", err)
			}
			success.Usage = &usage
		}
		outcome = success
	case StatusFailure:
		outcome = Failure{Err: errors.New(gjson.GetBytes(data, "result.error").String())}
	case StatusAbort:
		outcome = Aborted{}
	default:
		return fmt.Errorf("invalid result status %q", status.String())
	}

	*e = Finished{FunctionType: ft, Metadata: meta, Settings: settings, Input: input, Result: outcome}
	return nil
}

func checkType(data []byte, want string) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	tpe := gjson.GetBytes(data, "type")
	if !tpe.Exists() || tpe.String() != want {
		return fmt.Errorf("missing or invalid type, expected '%s'", want)
	}
	return nil
}

func marshalCommon(base []byte, ft FunctionType, meta Metadata, settings *orderedmap.OrderedMap[string, any], input any) ([]byte, error) {
	result := append([]byte(nil), base...)

	var err error
	result, err = sjson.SetBytes(result, "functionType", string(ft))
	if err != nil {
		return nil, err
	}

	mb, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "metadata", mb)
	if err != nil {
		return nil, err
	}

	if settings != nil {
		sb, err := settings.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal settings: %w", err)
		}
		result, err = sjson.SetRawBytes(result, "settings", sb)
		if err != nil {
			return nil, err
		}
	}

	return setValue(result, "input", input)
}

func setValue(result []byte, path string, v any) ([]byte, error) {
	if v == nil {
		return result, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	return sjson.SetRawBytes(result, path, b)
}

func unmarshalCommon(data []byte) (FunctionType, Metadata, *orderedmap.OrderedMap[string, any], any, error) {
	var meta Metadata

	ft := gjson.GetBytes(data, "functionType")
	if !ft.Exists() {
		return "", meta, nil, nil, fmt.Errorf("missing required field 'functionType'")
	}

	mr := gjson.GetBytes(data, "metadata")
	if !mr.Exists() {
		return "", meta, nil, nil, fmt.Errorf("missing required field 'metadata'")
	}
	meta.CallID = mr.Get("callId").String()
	if meta.CallID == "" {
		return "", meta, nil, nil, fmt.Errorf("missing required field 'metadata.callId'")
	}
	meta.FunctionID = mr.Get("functionId").String()
	meta.RunID = mr.Get("runId").String()
	meta.SessionID = mr.Get("sessionId").String()
	meta.UserID = mr.Get("userId").String()
	meta.Model = ModelInfo{
		Provider:  mr.Get("model.provider").String(),
		ModelName: mr.Get("model.modelName").String(),
	}
	meta.StartEpochSeconds = mr.Get("startEpochSeconds").Int()
	if ts := mr.Get("startTimestamp"); ts.Exists() {
		parsed, err := strfmt.ParseDateTime(ts.String())
		if err != nil {
			return "", meta, nil, nil, fmt.Errorf("invalid startTimestamp: %w", err)
		}
		meta.StartTimestamp = parsed
	} else {
		meta.StartTimestamp = strfmt.DateTime(time.Unix(meta.StartEpochSeconds, 0).UTC())
	}
	if d := mr.Get("durationInMs"); d.Exists() {
		ms := d.Int()
		meta.DurationInMs = &ms
	}

	var settings *orderedmap.OrderedMap[string, any]
	if sr := gjson.GetBytes(data, "settings"); sr.Exists() {
		settings = orderedmap.New[string, any]()
		if err := settings.UnmarshalJSON([]byte(sr.Raw)); err != nil {
			return "", meta, nil, nil, fmt.Errorf("invalid settings: %w", err)
		}
	}

	return FunctionType(ft.String()), meta, settings, gjson.GetBytes(data, "input").Value(), nil
}
