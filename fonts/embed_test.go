package fonts

import "testing"

func TestLoadBuiltin(t *testing.T) {
	for _, name := range []string{"embed:gobold", "goregular", "GoMono.ttf"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("加载 %s 失败: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s 内容为空", name)
		}
	}
	if _, err := Load("embed:Inter-Regular"); err == nil {
		t.Fatalf("未知字体应报错")
	}
}
