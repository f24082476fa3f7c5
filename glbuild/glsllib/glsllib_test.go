package glsllib_test

import (
	"strings"
	"testing"

	"github.com/raymarch/rmsdf/glbuild"
	"github.com/raymarch/rmsdf/glbuild/glsllib"
	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	want := map[string]string{
		"Sphere":    "vec4",
		"Cube":      "vec4",
		"Plane":     "float",
		"SinSphere": "vec4",
		"Vase":      "vec4",
	}
	kinds := glsllib.Kinds()
	assert.Len(t, kinds, len(want))
	for _, k := range kinds {
		assert.Equal(t, want[k.Key()], k.ParamType(), k.Key())
		assert.Equal(t, k.Key()+"Dist", k.FuncName())
	}
}

func TestFragmentTemplate(t *testing.T) {
	tmpl := glsllib.FragmentTemplate()
	err := tmpl.Validate(glbuild.MarkerUniforms, glbuild.MarkerDistFunctions, glbuild.MarkerSceneDist)
	assert.NoError(t, err)
	src := tmpl.String()
	for _, uniform := range []string{"u_Resolution", "u_LightPos", "u_CameraPos", "u_CameraRotY", "u_EnableShadows", "u_SmoothMinValue", "u_Time"} {
		assert.Contains(t, src, uniform)
	}
	// Helpers used by distance functions precede their insertion point.
	fnIdx := strings.Index(src, glbuild.MarkerDistFunctions)
	for _, helper := range []string{"float smin(", "vec3 wrapSpace(", "mat2 Rotate("} {
		idx := strings.Index(src, helper)
		assert.True(t, idx >= 0 && idx < fnIdx, helper)
	}
	assert.NotSame(t, &glsllib.FragmentTemplate().Bytes()[0], &tmpl.Bytes()[0])
}

func TestVertexSource(t *testing.T) {
	src := string(glsllib.VertexSource())
	assert.True(t, strings.HasPrefix(src, "#version 330 core"))
	assert.Contains(t, src, "gl_Position")
}
