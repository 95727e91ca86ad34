package shapes

type Sizer interface {
	Size() int
}

type Namer interface {
	Name() string
}

type Shape interface {
	Sizer
	Namer
	Area() float64
}

type Base struct {
	ID     int
	hidden int
}

func (b *Base) Describe() string { return "" }

type Square struct {
	Base
	Side float64
}

func (s Square) Area() float64 { return s.Side * s.Side }

type unexported struct{}
