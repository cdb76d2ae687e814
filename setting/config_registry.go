// Package setting 定義積分工作的設定檔格式（YAML / JSON）。
package setting

import (
	"bytes"
	"encoding/json"

	"github.com/zintix-labs/quadlab/errs"
	"gopkg.in/yaml.v3"
)

// GetJobSettingByYAML
// 會讀取 YAML 設定、編譯被積函數並執行基本檢查後回傳。
// 拼錯或多寫的欄位直接視為錯誤。
func GetJobSettingByYAML(data []byte) (*JobSetting, error) {
	js := &JobSetting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(js); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := js.init(); err != nil {
		return nil, errs.Wrap(err, "job setting initialized err")
	}

	return js, nil
}

// GetJobSettingByJSON
// 會讀取 Json 設定、編譯被積函數並執行基本檢查後回傳
func GetJobSettingByJSON(data []byte) (*JobSetting, error) {
	js := &JobSetting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(js); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := js.init(); err != nil {
		return nil, errs.Wrap(err, "job setting initialized err")
	}

	return js, nil
}
