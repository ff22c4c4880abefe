package conf

import (
	"bytes"
	"errors"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

/* ========================================================================
 * Config Loader - 配置加载器
 * ========================================================================
 * 职责: YAML 文件 + 环境变量 (EDU_ 前缀) 加载到结构体
 * 技术: Viper + mapstructure 解码钩子
 * 顺序: 结构体默认值 < 配置文件 < 环境变量
 * ======================================================================== */

// DefaultEnvPrefix 默认环境变量前缀，server.port 对应 EDU_SERVER_PORT
const DefaultEnvPrefix = "EDU"

// Loader 定义配置加载接口
type Loader interface {
	Load(config any) error
}

type viperLoader struct {
	configPath string
	configName string
	configType string
	envPrefix  string
}

var envPlaceholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// expandEnvPlaceholders 展开 ${VAR} 与 ${VAR:-default}，未设置或为空时取 default
func expandEnvPlaceholders(raw string) string {
	return envPlaceholderPattern.ReplaceAllStringFunc(raw, func(match string) string {
		sub := envPlaceholderPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok && val != "" {
			return val
		}
		return sub[2]
	})
}

// NewLoader 创建配置加载器，使用 EDU 前缀
func NewLoader(configPath, configName, configType string) Loader {
	return NewLoaderWithEnvPrefix(configPath, configName, configType, DefaultEnvPrefix)
}

// NewLoaderWithEnvPrefix 创建带自定义环境变量前缀的配置加载器
func NewLoaderWithEnvPrefix(configPath, configName, configType, envPrefix string) Loader {
	if configType == "" {
		configType = "yaml"
	}
	return &viperLoader{
		configPath: configPath,
		configName: configName,
		configType: configType,
		envPrefix:  envPrefix,
	}
}

// Load 解码到 config；config 中已有的值作为默认值
// 配置文件不存在时只使用默认值与环境变量
func (l *viperLoader) Load(config any) error {
	finder := viper.New()
	finder.AddConfigPath(l.configPath)
	finder.SetConfigName(l.configName)
	finder.SetConfigType(l.configType)
	if err := finder.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range leafKeys(reflect.TypeOf(config), "") {
		_ = v.BindEnv(key)
	}

	if configFile := finder.ConfigFileUsed(); configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return err
		}
		v.SetConfigType(l.configType)
		if err := v.ReadConfig(bytes.NewBufferString(expandEnvPlaceholders(string(raw)))); err != nil {
			return err
		}
	}

	return v.Unmarshal(config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
}

// leafKeys 按 mapstructure 标签展开结构体的叶子键，使环境变量可以覆盖文件中未出现的键
func leafKeys(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			keys = append(keys, leafKeys(ft, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
