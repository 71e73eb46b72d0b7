// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/viper"
)

type paramError struct {
	param string
	msg   string
}

func (p *paramError) Error() string {
	return fmt.Sprintf("%v: %v", p.param, p.msg)
}

func checkParameters(v *viper.Viper) error {
	if v.GetInt("input.chunk_size") <= 0 {
		return &paramError{param: "input.chunk_size", msg: "value must be > 0"}
	}

	switch v.GetInt("output.bit_depth") {
	case 16, 24, 32:
	default:
		return &paramError{param: "output.bit_depth", msg: "allowed values are 16, 24, 32"}
	}

	if v.GetInt("render.sample_rate") < 0 {
		return &paramError{param: "render.sample_rate", msg: "value must be >= 0"}
	}
	if v.GetInt("render.block_size") <= 0 {
		return &paramError{param: "render.block_size", msg: "value must be > 0"}
	}
	if v.GetDuration("render.fade_in") < 0 {
		return &paramError{param: "render.fade_in", msg: "value must be >= 0"}
	}

	return nil
}
