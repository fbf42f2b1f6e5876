// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package configs

type PostgresAuth struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PostgresConfig struct {
	Host               string       `mapstructure:"host"`
	Port               int          `mapstructure:"port"`
	DBName             string       `mapstructure:"db_name"`
	Auth               PostgresAuth `mapstructure:"auth"`
	MaxOpenConnection  int          `mapstructure:"max_open_connection"`
	MaxIdealConnection int          `mapstructure:"max_ideal_connection"`
	SslMode            string       `mapstructure:"ssl_mode"`
}

type RedisAuth struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type RedisConfig struct {
	Host          string    `mapstructure:"host"`
	Port          int       `mapstructure:"port"`
	Db            int       `mapstructure:"db"`
	Auth          RedisAuth `mapstructure:"auth"`
	MaxConnection int       `mapstructure:"max_connection"`
}
