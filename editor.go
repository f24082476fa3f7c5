package rmsdf

// Widgets is the immediate mode UI surface editors draw to.
// Widget methods report whether the user changed the value this frame.
type Widgets interface {
	Begin(title string) bool
	End()
	Text(text string)
	Button(label string) bool
	SameLine()
	Checkbox(label string, v *bool) bool
	SliderFloat(label string, v *float32, min, max float32) bool
}

// Editable is implemented by shapes whose parameters can be tweaked at runtime.
type Editable interface {
	// SectionName is the label under which the editor is listed.
	SectionName() string
	// RenderEditor draws the editor widgets. It is called once per frame while selected.
	RenderEditor(ui Widgets)
}

const (
	posSliderLim  = 10
	sizeSliderMax = 5
)

var (
	_ Editable = (*Sphere)(nil)
	_ Editable = (*Cube)(nil)
	_ Editable = (*SinSphere)(nil)
	_ Editable = (*Vase)(nil)
	_ Editable = (*Interpolated)(nil)
)

func sliderCenter(ui Widgets, x, y, z *float32) {
	ui.SliderFloat("x", x, -posSliderLim, posSliderLim)
	ui.SliderFloat("y", y, -posSliderLim, posSliderLim)
	ui.SliderFloat("z", z, -posSliderLim, posSliderLim)
}

func (s *Sphere) SectionName() string { return s.name }

func (s *Sphere) RenderEditor(ui Widgets) {
	sliderCenter(ui, &s.Center.X, &s.Center.Y, &s.Center.Z)
	ui.SliderFloat("radius", &s.Radius, 0, sizeSliderMax)
}

func (c *Cube) SectionName() string { return c.name }

func (c *Cube) RenderEditor(ui Widgets) {
	sliderCenter(ui, &c.Center.X, &c.Center.Y, &c.Center.Z)
	ui.SliderFloat("size", &c.Size, 0, sizeSliderMax)
}

func (s *SinSphere) SectionName() string { return s.name }

func (s *SinSphere) RenderEditor(ui Widgets) {
	sliderCenter(ui, &s.Center.X, &s.Center.Y, &s.Center.Z)
	ui.SliderFloat("radius", &s.Radius, 0, sizeSliderMax)
}

func (v *Vase) SectionName() string { return v.name }

func (v *Vase) RenderEditor(ui Widgets) {
	sliderCenter(ui, &v.Center.X, &v.Center.Y, &v.Center.Z)
	// Zero size divides by zero in the flare smoothstep.
	if ui.SliderFloat("size", &v.Size, 0, sizeSliderMax) && v.Size <= 0 {
		v.Size = 1e-3
	}
}

func (c *Interpolated) SectionName() string { return c.name }

func (c *Interpolated) RenderEditor(ui Widgets) {
	ui.SliderFloat("grade", &c.Grade, 0, 1)
}
