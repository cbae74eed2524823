package config

type AppConfig struct {
	Server   ServerConfig
	Log      LogConfig
	Pipeline PipelineConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	pipelineCfg, err := LoadPipeline()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:   serverCfg,
		Log:      logCfg,
		Pipeline: pipelineCfg,
	}, nil
}
